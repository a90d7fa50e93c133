package client

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/assetdesk/assetdesk/internal/model"
)

// ListItems fetches every item.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var list model.ItemList
	if err := c.Fetch(ctx, "/items", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GetItem fetches one item.
func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := c.Fetch(ctx, "/items/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem creates an item.
func (c *Client) CreateItem(ctx context.Context, req model.CreateItemRequest) (*model.Item, error) {
	var item model.Item
	err := c.Fetch(ctx, "/items", &RequestOptions{Method: http.MethodPost, Body: req}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies a partial update to an item.
func (c *Client) UpdateItem(ctx context.Context, id string, req model.UpdateItemRequest) (*model.Item, error) {
	var item model.Item
	err := c.Fetch(ctx, "/items/"+url.PathEscape(id), &RequestOptions{Method: http.MethodPatch, Body: req}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.Fetch(ctx, "/items/"+url.PathEscape(id), &RequestOptions{Method: http.MethodDelete}, nil)
}

// ImportItems uploads a CSV or XLSX file as the multipart field "file".
func (c *Client) ImportItems(ctx context.Context, filename, contentType string, content io.Reader) (*model.ImportResult, error) {
	var result model.ImportResult
	err := c.Fetch(ctx, "/items/import", &RequestOptions{
		Method: http.MethodPost,
		File:   &File{Field: "file", Name: filename, ContentType: contentType, Content: content},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
