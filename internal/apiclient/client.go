// Package apiclient is the JSON-over-HTTP wrapper every backend call goes through.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"qrmarket/internal/logs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FallbackMessage is used when a failed response carries no message.
const FallbackMessage = "An error occurred"

// Envelope is the {success, data, message} wrapper of every backend response.
type Envelope[T any] struct {
	Success *bool  `json:"success,omitempty"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// APIError is a failure reported by the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

type tokenKey struct{}

// WithToken attaches the bearer credential used for calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a JSON request to path and decodes the JSON response into out.
// Content-Type and, when ctx carries a token, Authorization are set first;
// header entries override them. The body is always parsed; a non-2xx status
// becomes an *APIError with the server message.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, header http.Header) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := TokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logs.Logger.WithFields(logrus.Fields{"method": method, "path": path}).Warnf("backend unreachable: %v", err)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logs.Logger.WithFields(logrus.Fields{
		"method": method, "path": path, "status": resp.StatusCode, "dur": time.Since(start),
	}).Debug("backend call")

	var head struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := head.Message
		if msg == "" {
			msg = FallbackMessage
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// Call performs a request and unwraps the envelope into T.
func Call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var env Envelope[T]
	if err := c.Do(ctx, method, path, body, &env, nil); err != nil {
		var zero T
		return zero, err
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = FallbackMessage
		}
		var zero T
		return zero, &APIError{Status: http.StatusOK, Message: msg}
	}
	return env.Data, nil
}

// Forward sends body to path and returns the backend's status and raw body
// untouched. A body that is not JSON is reported as an error.
func (c *Client) Forward(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	if !json.Valid(raw) {
		return resp.StatusCode, nil, fmt.Errorf("forward %s %s: response is not JSON", method, path)
	}
	return resp.StatusCode, raw, nil
}
