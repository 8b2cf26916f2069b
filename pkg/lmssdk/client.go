package lmssdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// APIPrefix is the path prefix of every account route.
const APIPrefix = "/api/v1"

// Client talks to the account service. Session cookies are kept in the
// HTTP client's jar.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client with a fresh cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do sends in as the JSON body (nil for none) and decodes a response with
// status expected into out (nil to discard).
func (c *Client) do(ctx context.Context, method, path string, in, out any, expected int) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expected {
		if err := parseErrorResponse(resp, raw); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Register starts a registration. The returned activation token is sent back
// with the emailed code through Activate.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, APIPrefix+"/registration", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Activate completes a registration.
func (c *Client) Activate(ctx context.Context, activationToken, code string) error {
	req := ActivateRequest{ActivationToken: activationToken, ActivationCode: code}
	return c.do(ctx, http.MethodPost, APIPrefix+"/activate-user", req, nil, http.StatusCreated)
}

// Login authenticates with email and password and stores the session
// cookies.
func (c *Client) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	var out SessionResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, APIPrefix+"/login", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SocialAuth signs in with an identity asserted by a third-party provider.
func (c *Client) SocialAuth(ctx context.Context, req SocialAuthRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, APIPrefix+"/social-auth", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades the refresh cookie for a new token pair.
func (c *Client) Refresh(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodGet, APIPrefix+"/refresh", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session and clears the cookies.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, APIPrefix+"/logout", nil, nil, http.StatusOK)
}

// Me returns the caller's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodGet, APIPrefix+"/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateInfo changes the caller's name and/or email.
func (c *Client) UpdateInfo(ctx context.Context, req UpdateInfoRequest) (*User, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodPut, APIPrefix+"/update-user-info", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdatePassword changes the caller's password.
func (c *Client) UpdatePassword(ctx context.Context, oldPassword, newPassword string) (*User, error) {
	var out UserResponse
	req := UpdatePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPut, APIPrefix+"/update-password", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListUsers returns every account, newest first. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out UsersResponse
	if err := c.do(ctx, http.MethodGet, APIPrefix+"/get-users", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// UpdateRole assigns role to the user with id. Admin only.
func (c *Client) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	var out UserResponse
	req := UpdateRoleRequest{ID: id, Role: role}
	if err := c.do(ctx, http.MethodPut, APIPrefix+"/update-user", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// DeleteUser removes the user with id. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, APIPrefix+"/delete-user/"+id, nil, nil, http.StatusOK)
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness checks if the service can reach its stores.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
