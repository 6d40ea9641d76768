package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPClient is the JSON-over-HTTP Backend implementation. Requests carry the
// caller's context; there is no automatic retry at this layer.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the backend at baseURL. timeout <= 0
// falls back to the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (*AuthPayload, error) {
	in := map[string]string{"identifier": identifier, "password": password}
	var out AuthPayload
	if err := c.post(ctx, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SendOTP(ctx context.Context, mobile string) (*SendOTPResult, error) {
	in := map[string]string{"mobile": mobile}
	var out SendOTPResult
	if err := c.post(ctx, "/auth/send-otp", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, mobile, code string) (*VerifyOTPResult, error) {
	in := map[string]string{"mobile": mobile, "otp": code}
	var out VerifyOTPResult
	if err := c.post(ctx, "/auth/verify-otp", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Signup(ctx context.Context, req SignupRequest) (*AuthPayload, error) {
	var out AuthPayload
	if err := c.post(ctx, "/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*AuthPayload, error) {
	var out AuthPayload
	if err := c.post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) error {
	in := map[string]string{"email": email}
	return c.post(ctx, "/auth/forgot-password", in, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, resetToken, password string) error {
	in := map[string]string{"resetToken": resetToken, "password": password}
	return c.post(ctx, "/auth/reset-password", in, nil)
}

func (c *HTTPClient) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, "/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError builds an APIError from a non-2xx response. A body that is not
// the expected JSON shape still yields an APIError so classification sees the
// status; the raw body is used as the message when it is short and plain.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(body, apiErr) == nil && apiErr.Message != "" {
		return apiErr
	}
	if msg := strings.TrimSpace(string(body)); msg != "" && !strings.HasPrefix(msg, "<") {
		apiErr.Message = msg
	}
	return apiErr
}
