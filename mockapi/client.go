// Package mockapi creates routing rules on the Beeceptor mock-API service.
// Each rule returns a canned response for a matched method+path, giving the
// demo agent live-looking endpoints to call.
package mockapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
)

// DefaultRulesURL targets the shared demo endpoint namespace.
const DefaultRulesURL = "https://api.beeceptor.com/api/v1/endpoints/ada-demo/rules"

// Rule is the Beeceptor rule schema.
type Rule struct {
	Enabled bool  `json:"enabled"`
	Mock    bool  `json:"mock"`
	Delay   int   `json:"delay"`
	Match   Match `json:"match"`
	Send    Send  `json:"send"`
}

type Match struct {
	Method   string `json:"method"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

type Send struct {
	Status    int               `json:"status"`
	Body      string            `json:"body"`
	Headers   map[string]string `json:"headers"`
	Templated bool              `json:"templated"`
}

type Client struct {
	rulesURL string
	token    string
	http     *http.Client
	log      *slog.Logger
}

// New builds a client for the rule-creation endpoint. The token is sent as
// the raw Authorization header value (Beeceptor does not use a scheme).
func New(rulesURL, token string) *Client {
	if rulesURL == "" {
		rulesURL = DefaultRulesURL
	}
	return &Client{
		rulesURL: rulesURL,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      slog.Default().With("component", "mockapi"),
	}
}

// CreateRules posts every rule, continuing past individual failures: a demo
// with partial mock coverage beats no demo. It returns how many rules were
// created and the joined failures, if any.
func (c *Client) CreateRules(ctx context.Context, rules []Rule) (int, error) {
	var created int
	var errs []error
	for i, rule := range rules {
		if err := c.createRule(ctx, rule); err != nil {
			c.log.Warn("mock rule creation failed, continuing",
				"rule", i+1, "path", rule.Match.Value, "error", err)
			errs = append(errs, fmt.Errorf("rule %d (%s %s): %w", i+1, rule.Match.Method, rule.Match.Value, err))
			continue
		}
		c.log.Info("mock rule created", "method", rule.Match.Method, "path", rule.Match.Value)
		created++
	}
	return created, errors.Join(errs...)
}

func (c *Client) createRule(ctx context.Context, rule Rule) error {
	raw, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("encode rule: %w", err)
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rulesURL, bytes.NewReader(raw))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(attempt, policy)
}
