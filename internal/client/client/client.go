package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/common"
)

// Client is the API contract the CLI depends on.
type Client interface {
	Register(ctx context.Context, name, email string, password []byte) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, email, token string) (string, error)
	Generate2FA(ctx context.Context, email string, password []byte) (*User, error)
	LoginWith2FA(ctx context.Context, email, code string) (*Session, error)
	Refresh(ctx context.Context, s *Session) error
	Logout(ctx context.Context, s *Session) error
	Me(ctx context.Context, s *Session) (*User, error)
	Health(ctx context.Context) error
}

// HTTPClient talks to the JSON API. The refresh cookie set by the server is
// kept in a cookie jar so it round-trips on /refresh.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Errors     []FieldError    `json:"errors"`
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	url := c.baseURL + path
	if path != "/health" {
		url = c.baseURL + common.APIPrefix + path
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email string, password []byte) (*RegisterResult, error) {
	var out RegisterResult
	err := c.do(ctx, http.MethodPost, "/registerAccount", "", map[string]string{
		"name": name, "email": email, "password": string(password),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail returns the id of the activated user.
func (c *HTTPClient) VerifyEmail(ctx context.Context, email, token string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/verifyEmail", "", map[string]string{
		"email": email, "token": token,
	}, &out)
	return out.ID, err
}

// Generate2FA checks the password and has the server email a login code.
func (c *HTTPClient) Generate2FA(ctx context.Context, email string, password []byte) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/generate2FA", "", map[string]string{
		"email": email, "password": string(password),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

type tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *HTTPClient) LoginWith2FA(ctx context.Context, email, code string) (*Session, error) {
	var out struct {
		User *User `json:"user"`
		tokens
	}
	err := c.do(ctx, http.MethodPost, "/loginWith2FA", "", map[string]string{
		"email": email, "token": code,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Session{User: out.User, AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}

// Refresh rotates the session's tokens in place. The jar cookie is sent
// alongside the body token.
func (c *HTTPClient) Refresh(ctx context.Context, s *Session) error {
	if s == nil || s.RefreshToken == "" {
		return ErrNoSession
	}

	var out tokens
	if err := c.do(ctx, http.MethodPost, "/refresh", "", map[string]string{
		"refreshToken": s.RefreshToken,
	}, &out); err != nil {
		return err
	}

	s.AccessToken = out.AccessToken
	s.RefreshToken = out.RefreshToken
	return nil
}

// authed runs call with the session's access token and, on 401, refreshes
// once and retries.
func (c *HTTPClient) authed(ctx context.Context, s *Session, call func(token string) error) error {
	if !s.Active() {
		return ErrNoSession
	}

	err := call(s.AccessToken)
	if err == nil || !errors.Is(err, ErrUnauthorized) || s.RefreshToken == "" {
		return err
	}

	if rerr := c.Refresh(ctx, s); rerr != nil {
		return err
	}
	return call(s.AccessToken)
}

// Logout revokes the server-side refresh record and clears s.
func (c *HTTPClient) Logout(ctx context.Context, s *Session) error {
	err := c.authed(ctx, s, func(token string) error {
		return c.do(ctx, http.MethodGet, "/logout", token, nil, nil)
	})
	if err != nil {
		return err
	}
	s.Clear()
	return nil
}

// Me fetches the current profile and stores it on s.
func (c *HTTPClient) Me(ctx context.Context, s *Session) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	err := c.authed(ctx, s, func(token string) error {
		return c.do(ctx, http.MethodGet, "/me", token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	s.User = out.User
	return out.User, nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}
