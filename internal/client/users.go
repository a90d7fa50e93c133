package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/assetdesk/assetdesk/internal/model"
)

// ListUsers fetches the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var list model.UserList
	if err := c.Fetch(ctx, "/users", nil, &list); err != nil {
		return nil, err
	}
	return list.Users, nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := c.Fetch(ctx, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a user. When req.Password is empty the server
// generates one and returns it in RawPassword.
func (c *Client) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.CreatedUser, error) {
	var user model.CreatedUser
	err := c.Fetch(ctx, "/users", &RequestOptions{Method: http.MethodPost, Body: req}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user. The backend refuses to delete the caller or a
// user who still owns items.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Fetch(ctx, "/users/"+url.PathEscape(id), &RequestOptions{Method: http.MethodDelete}, nil)
}
