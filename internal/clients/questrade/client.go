// Package questrade provides a client for the Questrade API
package questrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmcnabb/questfolio/internal/common"
	"github.com/dmcnabb/questfolio/internal/interfaces"
	"github.com/dmcnabb/questfolio/internal/models"
)

const (
	DefaultLoginURL  = "https://login.questrade.com/oauth2/token"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the QuestradeClient interface
type Client struct {
	loginURL   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLoginURL sets the OAuth2 token endpoint
func WithLoginURL(loginURL string) ClientOption {
	return func(c *Client) {
		c.loginURL = loginURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Questrade client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		loginURL: DefaultLoginURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ExchangeToken trades a refresh token for a session token and the next
// refresh token. The refresh token is consumed server-side on success; a
// non-2xx response leaves it valid.
func (c *Client) ExchangeToken(ctx context.Context, refreshToken string) (*models.TokenExchange, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", refreshToken)
	reqURL := c.loginURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.loginURL).Msg("Questrade token exchange")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: c.loginURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Endpoint: c.loginURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Endpoint:   c.loginURL,
		}
	}

	var exchange models.TokenExchange
	if err := json.Unmarshal(body, &exchange); err != nil {
		return nil, &ParseError{Endpoint: c.loginURL, Err: err}
	}

	return &exchange, nil
}

// get performs a rate-limited GET against the session's API server.
func (c *Client) get(ctx context.Context, session *models.SessionToken, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := strings.TrimSuffix(session.APIServer, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("path", path).Msg("Questrade API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &AuthError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &ParseError{Endpoint: path, Err: err}
	}

	return nil
}

// ListAccounts retrieves all accounts visible to the session.
func (c *Client) ListAccounts(ctx context.Context, session *models.SessionToken) ([]models.Account, error) {
	var resp accountsResponse
	if err := c.get(ctx, session, "/v1/accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

type accountsResponse struct {
	Accounts []models.Account `json:"accounts"`
}

// GetBalances retrieves per-currency and combined balances for an account.
func (c *Client) GetBalances(ctx context.Context, session *models.SessionToken, accountID string) (*models.Balances, error) {
	var resp models.Balances
	path := fmt.Sprintf("/v1/accounts/%s/balances", accountID)
	if err := c.get(ctx, session, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPositions retrieves all positions for an account.
func (c *Client) ListPositions(ctx context.Context, session *models.SessionToken, accountID string) ([]models.Position, error) {
	var resp positionsResponse
	path := fmt.Sprintf("/v1/accounts/%s/positions", accountID)
	if err := c.get(ctx, session, path, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

type positionsResponse struct {
	Positions []models.Position `json:"positions"`
}

// GetSymbol retrieves instrument detail for a symbol ID. The endpoint
// returns a list; the first entry wins and an empty list is NotFound.
func (c *Client) GetSymbol(ctx context.Context, session *models.SessionToken, symbolID int) (*models.Symbol, error) {
	var resp symbolsResponse
	path := fmt.Sprintf("/v1/symbols/%d", symbolID)
	if err := c.get(ctx, session, path, &resp); err != nil {
		return nil, err
	}

	if len(resp.Symbols) == 0 {
		return nil, &NotFoundError{Kind: "symbol", ID: strconv.Itoa(symbolID)}
	}

	return &resp.Symbols[0], nil
}

type symbolsResponse struct {
	Symbols []models.Symbol `json:"symbols"`
}

// Ensure Client implements QuestradeClient
var _ interfaces.QuestradeClient = (*Client)(nil)
