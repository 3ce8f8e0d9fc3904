// Package sendgrid sends transactional email through the SendGrid v3 API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

const (
	defaultBaseURL  = "https://api.sendgrid.com"
	defaultTimeout  = 15 * time.Second
	maxRetryAfter   = 10 * time.Second
	maxErrorBodyLen = 2000
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	// MaxAttempts bounds calls per Send, counting the first. Zero means 3.
	MaxAttempts uint
	// InitialBackoff is the first retry delay. Zero means 500ms.
	InitialBackoff time.Duration
}

type client struct {
	log    *logger.Logger
	cfg    Config
	sender EmailAddress
	http   *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, errors.New("sendgrid: logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid: missing SENDGRID_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	return &client{
		log: log.With("client", "sendgrid"),
		cfg: cfg,
		sender: EmailAddress{
			Email: strings.TrimSpace(cfg.DefaultFromEmail),
			Name:  strings.TrimSpace(cfg.DefaultFromName),
		},
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// HTTPError is a non-2xx answer from SendGrid.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration
	Messages   []string
	Body       string
}

func (e *HTTPError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBodyLen {
		body = body[:maxErrorBodyLen] + "..."
	}
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, body)
}

// Temporary reports whether the same request may succeed later.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	ctx = ctxutil.Default(ctx)
	msg, err := buildMailSend(req, c.sender)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: encode: %w", err)
	}

	policy := &retryAfterBackOff{ExponentialBackOff: backoff.NewExponentialBackOff()}
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = 8 * time.Second

	attempt := 0
	res, err := backoff.Retry(ctx, func() (*SendEmailResult, error) {
		attempt++
		res, err := c.post(ctx, "/v3/mail/send", body)
		if err == nil {
			return res, nil
		}
		var he *HTTPError
		if errors.As(err, &he) {
			if !he.Temporary() {
				return nil, backoff.Permanent(err)
			}
			policy.hint = min(he.RetryAfter, maxRetryAfter)
		} else if !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.cfg.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.log.Warn("sendgrid send retrying", "attempt", attempt, "wait", wait.String(), "error", err)
		}),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		return nil, err
	}
	return res, nil
}

func (c *client) post(ctx context.Context, path string, body []byte) (*SendEmailResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(resp, raw)
	}
	return &SendEmailResult{
		StatusCode: resp.StatusCode,
		MessageID:  strings.TrimSpace(resp.Header.Get("X-Message-Id")),
	}, nil
}

func newHTTPError(resp *http.Response, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
		he.RetryAfter = time.Duration(secs) * time.Second
	}
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		for _, e := range parsed.Errors {
			if m := strings.TrimSpace(e.Message); m != "" {
				he.Messages = append(he.Messages, m)
			}
		}
	}
	return he
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryAfterBackOff prefers the server's Retry-After over the exponential
// schedule for the next wait only.
type retryAfterBackOff struct {
	*backoff.ExponentialBackOff
	hint time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	if b.hint > 0 {
		d := b.hint
		b.hint = 0
		return d
	}
	return b.ExponentialBackOff.NextBackOff()
}
