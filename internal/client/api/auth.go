package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
)

// Login exchanges credentials for an access token and a user profile. The
// backend also sets the refresh cookie, which lands in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "auth/login/", models.Credentials{Username: username, Password: password})
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "auth/register/", models.Credentials{Username: username, Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, creds models.Credentials) (*models.AuthResponse, error) {
	data, err := c.do(ctx, request{method: http.MethodPost, path: path, body: creds, noRefresh: true})
	if err != nil {
		return nil, err
	}
	var resp models.AuthResponse
	if err := decodeJSON(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout asks the backend to drop the refresh cookie.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "auth/logout/", body: struct{}{}})
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "auth/user/"})
	if err != nil {
		return nil, err
	}
	var resp struct {
		User models.User `json:"user"`
	}
	if err := decodeJSON(data, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// RefreshAccessToken asks for a new access token. The refresh token itself
// travels in the cookie, so the body is empty.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	data, err := c.do(ctx, request{method: http.MethodPost, path: refreshPath, body: struct{}{}})
	if err != nil {
		return "", err
	}
	var tokens models.Tokens
	if err := decodeJSON(data, &tokens); err != nil {
		return "", err
	}
	return tokens.Access, nil
}

// Ping requests the API root. Any HTTP response, even an error status, means
// the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, c.log, request{method: http.MethodGet}, nil, "ping")
	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) {
		return err
	}
	return nil
}
