// Package mailing forwards new subscribers to the mailing-list provider.
package mailing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// ErrMemberExists is returned when the provider already has the address.
var ErrMemberExists = errors.New("mailing: member already exists")

// Member is a new list member.
type Member struct {
	Email  string `json:"email_address"`
	Source string `json:"source,omitempty"`
	Status string `json:"status"`
}

// Provider adds members to a list and returns the provider's reference.
type Provider interface {
	AddMember(ctx context.Context, m Member) (string, error)
}

// Config configures the HTTP provider.
type Config struct {
	BaseURL string
	APIKey  string
	ListID  string
	// MaxTries bounds attempts per member, including the first.
	MaxTries uint
	Timeout  time.Duration
}

// Client is an HTTP JSON mailing-list client.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
	// backoff is swapped in tests to avoid sleeping.
	backoff func() backoff.BackOff
}

// NewClient builds a client for cfg.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  logger,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 300 * time.Millisecond
			b.MaxInterval = 3 * time.Second
			return b
		},
	}
}

type memberResponse struct {
	ID string `json:"id"`
}

// AddMember posts m to {base}/lists/{list}/members, retrying transport errors
// and 5xx/429 responses with exponential backoff.
func (c *Client) AddMember(ctx context.Context, m Member) (string, error) {
	if m.Status == "" {
		m.Status = "subscribed"
	}
	body, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode member: %w", err)
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/lists/" + c.cfg.ListID + "/members"

	attempt := 0
	op := func() (string, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn("mailing provider request failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusConflict:
			return "", backoff.Permanent(ErrMemberExists)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_, _ = io.Copy(io.Discard, resp.Body)
			c.log.Warn("mailing provider unavailable", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			return "", fmt.Errorf("provider status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return "", backoff.Permanent(fmt.Errorf("provider rejected member: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
		}

		var out memberResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return "", backoff.Permanent(fmt.Errorf("decode provider response: %w", err))
		}
		return out.ID, nil
	}

	ref, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(c.cfg.MaxTries),
	)
	if err != nil {
		if errors.Is(err, ErrMemberExists) {
			return "", ErrMemberExists
		}
		return "", fmt.Errorf("add member: %w", err)
	}
	return ref, nil
}

// LogProvider accepts every member and only logs it. It is used when no
// provider is configured.
type LogProvider struct {
	Logger *zap.Logger
}

// AddMember logs m and returns an empty reference.
func (p LogProvider) AddMember(_ context.Context, m Member) (string, error) {
	if p.Logger != nil {
		p.Logger.Info("mailing provider not configured, member kept locally",
			zap.String("source", m.Source))
	}
	return "", nil
}
