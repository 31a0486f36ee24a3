// Package apiclient is a typed client for the Game Review Hub REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meur/reviewhub/internal/models"
	"github.com/meur/reviewhub/internal/session"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 64 << 10

type authMode int

const (
	authNone authMode = iota
	authOptional
	authRequired
)

var apiSuffix = regexp.MustCompile(`/_?api/?$`)

// Client talks to one API origin on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger enables request logging.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL (e.g. http://localhost:4000/api).
// A nil session is replaced with an in-memory one.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if sess == nil {
		sess = session.NewMemory()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of c bound to sess.
func (c *Client) WithSession(sess *session.Session) *Client {
	cp := *c
	cp.session = sess
	return &cp
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *session.Session { return c.session }

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string { return c.baseURL }

// BackendRoot strips a trailing /api (or /_api) from the base URL.
func (c *Client) BackendRoot() string {
	return strings.TrimRight(apiSuffix.ReplaceAllString(c.baseURL, ""), "/")
}

// CoverURL returns the thumbnail URL of a game's cover.
func (c *Client) CoverURL(gameID int) string {
	return fmt.Sprintf("%s/api/games/%d/cover?size=thumb", c.BackendRoot(), gameID)
}

// --- Games ---

// ListGames fetches one page of games.
func (c *Client) ListGames(ctx context.Context, page, limit int, sort models.SortKey) (*models.GamePage, error) {
	if !sort.Valid() {
		return nil, fmt.Errorf("list games: unknown sort key %q", sort)
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", string(sort))

	var out models.GamePage
	if err := c.doJSON(ctx, http.MethodGet, "/games", q, nil, authNone, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []models.Game{}
	}
	return &out, nil
}

// CreateGame validates and creates a game.
func (c *Client) CreateGame(ctx context.Context, in models.GameCreate) (*models.Game, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out models.Game
	if err := c.doJSON(ctx, http.MethodPost, "/games", nil, in, authOptional, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Reviews ---

// ListReviews returns the reviews of a game, newest first.
func (c *Client) ListReviews(ctx context.Context, gameID int) ([]models.Review, error) {
	q := url.Values{}
	q.Set("game_id", strconv.Itoa(gameID))
	var out []models.Review
	if err := c.doJSON(ctx, http.MethodGet, "/reviews", q, nil, authNone, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReview posts a review. The bearer token is attached when present;
// whether one is required is the caller's policy.
func (c *Client) SubmitReview(ctx context.Context, in models.ReviewCreate) (*models.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out models.Review
	if err := c.doJSON(ctx, http.MethodPost, "/reviews", nil, in, authOptional, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Auth ---

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, creds, authNone, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	var out models.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, creds, authNone, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &Error{Kind: KindHTTP, Method: http.MethodPost, Path: "/auth/login", Status: http.StatusOK, Message: "login response had no access_token"}
	}
	if err := c.session.Set(out.AccessToken); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &out, nil
}

// Logout forgets the token. The API has no server-side logout.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, nil, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the backend root /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BackendRoot()+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.send(req, "/health", false, nil)
}

// --- Transport ---

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in any, auth authMode, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	authed, err := c.authorize(req, auth)
	if err != nil {
		return err
	}
	return c.send(req, path, authed, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

// authorize attaches the bearer token according to mode and reports whether
// one was attached.
func (c *Client) authorize(req *http.Request, mode authMode) (bool, error) {
	if mode == authNone {
		return false, nil
	}
	token := c.session.Token()
	if token == "" {
		if mode == authRequired {
			return false, ErrNotSignedIn
		}
		return false, nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return true, nil
}

// send executes req and decodes a 2xx JSON body into out. A 401 on a request
// that carried a token clears the session.
func (c *Client) send(req *http.Request, path string, authed bool, out any) error {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("<- %s %s id=%s error=%v", req.Method, path, requestID, err)
		return &Error{Kind: KindTransport, Method: req.Method, Path: path, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()
	c.logf("<- %s %s id=%s status=%d in %s", req.Method, path, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{
			Kind:      KindHTTP,
			Method:    req.Method,
			Path:      path,
			Status:    resp.StatusCode,
			Message:   detailMessage(raw),
			RequestID: requestID,
		}
		if resp.StatusCode == http.StatusUnauthorized && authed {
			if err := c.session.Clear(); err != nil {
				c.logf("clear session after 401: %v", err)
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Kind: KindTransport, Method: req.Method, Path: path, Status: resp.StatusCode, RequestID: requestID, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
