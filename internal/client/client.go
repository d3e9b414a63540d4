// Package client provides the API client for the Polychat backend and the
// optimistic timeline the frontend reconciles against it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/linqiu/polychat/backend/internal/model/catalog"
	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// Client is a Polychat API client. Token is the bearer credential attached
// to every conversation call.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// SendResult is the server's answer to a send call.
type SendResult struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// Models fetches the static model catalog.
func (c *Client) Models(ctx context.Context) ([]catalog.Model, error) {
	var models []catalog.Model
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// History fetches up to limit of the caller's messages, oldest first.
func (c *Client) History(ctx context.Context, limit int) ([]chat.Message, error) {
	path := "/api/chat/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var messages []chat.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Send submits a prompt for the given model and blocks until the reply is
// generated and persisted, or the send fails.
func (c *Client) Send(ctx context.Context, modelTag, prompt string) (SendResult, error) {
	payload := map[string]string{
		"modelTag": modelTag,
		"prompt":   prompt,
	}

	var result SendResult
	if err := c.do(ctx, http.MethodPost, "/api/chat/send", payload, &result); err != nil {
		return SendResult{}, err
	}
	return result, nil
}

// Delete removes one of the caller's messages.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	path := "/api/chat/messages/" + url.PathEscape(messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
