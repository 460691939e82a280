package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"eyestock/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const apiPrefix = "/api/v1"

var (
	ErrBackend             = errors.New("backend request failed")
	ErrDeviceNotRegistered = errors.New("device is not registered")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrBackend
}

// TokenSource supplies the bearer token attached to requests. An empty token sends no Authorization header.
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.API, do.MustInvoke[TokenSource](di)), nil
}

func New(cfg config.API, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + apiPrefix,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	errBuilder := oops.In("backend").With("path", path)

	payload, err := json.Marshal(body)
	if err != nil {
		return errBuilder.Wrapf(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errBuilder.Wrapf(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errBuilder.Wrap(fmt.Errorf("%w: %w", ErrBackend, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errBuilder.Wrap(fmt.Errorf("%w: failed to read response: %w", ErrBackend, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			slog.Info("Access token expired, refresh required", "path", path)
		}

		return errBuilder.With("status", resp.StatusCode).Wrap(&StatusError{
			Status: resp.StatusCode,
			Body:   string(data),
		})
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err = json.Unmarshal(data, out); err != nil {
		return errBuilder.Wrap(fmt.Errorf("%w: failed to decode response: %w", ErrBackend, err))
	}

	return nil
}

// StatusOf returns the HTTP status carried by err, or 0 when the request never got a response.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}

	return 0
}
