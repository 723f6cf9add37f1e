// AngelaMos | 2026
// client.go

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tablehost/admin-api/internal/config"
)

const defaultTimeout = 10 * time.Second

// Client talks to the hosted auth service over its REST surface. It needs
// exactly two capabilities: exchanging a bearer token for an identity and
// deleting an identity by id with the privileged service credential.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(cfg config.IdentityConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) VerifyToken(
	ctx context.Context,
	token string,
) (*Identity, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/auth/v1/user",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidToken, resp.StatusCode)
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}

	if ident.ID == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidToken)
	}

	return &ident, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodDelete,
		c.baseURL+"/auth/v1/admin/users/"+userID,
		nil,
	)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrUserNotFound, readErrorMessage(resp.Body))
	default:
		return fmt.Errorf(
			"delete identity: status %d: %s",
			resp.StatusCode,
			readErrorMessage(resp.Body),
		)
	}
}

// readErrorMessage extracts a human-readable message from an auth service
// error body, which may use "msg", "message" or "error_description".
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}

	var parsed struct {
		Msg         string `json:"msg"`
		Message     string `json:"message"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		switch {
		case parsed.Msg != "":
			return parsed.Msg
		case parsed.Message != "":
			return parsed.Message
		case parsed.Description != "":
			return parsed.Description
		}
	}

	return strings.TrimSpace(string(raw))
}

var (
	_ Verifier = (*Client)(nil)
	_ Deleter  = (*Client)(nil)
)
