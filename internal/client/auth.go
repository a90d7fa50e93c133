package client

import (
	"context"
	"net/http"

	"github.com/assetdesk/assetdesk/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.Fetch(ctx, "/auth/login", &RequestOptions{
		Method: http.MethodPost,
		Body:   loginRequest{Email: email, Password: password},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Refresh trades a refresh token for a new session. The presented token
// is spent; use the one in the returned session next time.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var s Session
	err := c.Fetch(ctx, "/auth/refresh", &RequestOptions{
		Method: http.MethodPost,
		Body:   refreshRequest{RefreshToken: refreshToken},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Logout revokes the client's token on the server, and refreshToken with
// it unless empty.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	opts := &RequestOptions{Method: http.MethodPost}
	if refreshToken != "" {
		opts.Body = refreshRequest{RefreshToken: refreshToken}
	}
	return c.Fetch(ctx, "/auth/logout", opts, nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword changes the password of the logged-in user.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.Fetch(ctx, "/auth/password", &RequestOptions{
		Method: http.MethodPut,
		Body:   changePasswordRequest{CurrentPassword: current, NewPassword: next},
	}, nil)
}
