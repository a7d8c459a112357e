package api

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoToken = errors.New("no access token in response")

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Login exchanges credentials for a bearer token. The form is sent without
// any stored token.
func (c *Client) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	var body TokenResponse
	resp, err := c.bare(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		SetResult(&body).
		Post("/auth/jwt/login")
	if err := check(resp, err); err != nil {
		return TokenResponse{}, fmt.Errorf("login: %w", err)
	}
	if body.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("login: %w", ErrNoToken)
	}
	return body, nil
}

// RefreshToken trades token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context, token string) (TokenResponse, error) {
	var body TokenResponse
	resp, err := c.bare(ctx).
		SetAuthToken(token).
		SetResult(&body).
		Post("/auth/jwt/refresh")
	if err := check(resp, err); err != nil {
		return TokenResponse{}, fmt.Errorf("refresh token: %w", err)
	}
	if body.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("refresh token: %w", ErrNoToken)
	}
	return body, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.bare(ctx).
		SetAuthToken(token).
		Post("/auth/jwt/logout")
	if err := check(resp, err); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
