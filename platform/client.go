// Package platform is a typed client for the Ada bot-platform REST API:
// cloning the template bot and, once a bearer credential is available,
// knowledge sources, bulk article upload, channels, conversations and
// messages. Every call is one blocking request with a bounded retry on
// transport failures; non-2xx responses are never retried.
package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
)

// Article is the platform's knowledge article schema, uploaded in bulk.
type Article struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Content           string `json:"content"`
	KnowledgeSourceID string `json:"knowledge_source_id"`
}

// Conversation is the identifier pair returned when a conversation is
// created; EndUserID is needed to author the seed message.
type Conversation struct {
	ID        string `json:"id"`
	EndUserID string `json:"end_user_id"`
}

// Config carries the template-bot coordinates used by Clone plus the HTTP
// behavior shared by every call.
type Config struct {
	TemplateHost string // e.g. https://scteam-demo.ada.support
	CloneSecret  string
	Email        string
	Password     string
	FullName     string

	Timeout    time.Duration // per-call, default 30s
	MaxRetries uint64        // transport retries per call, default 3
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.FullName == "" {
		cfg.FullName = "Ada SC Team"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  slog.Default().With("component", "platform"),
	}
}

// Clone copies the template bot to a new handle. The platform answers 500
// when the handle is already taken; that is reported as alreadyExists=true
// and is not an error, repeated provisioning of the same company reuses the
// bot.
func (c *Client) Clone(ctx context.Context, botHandle string) (alreadyExists bool, err error) {
	payload := map[string]any{
		"clone_secret":   c.cfg.CloneSecret,
		"new_handle":     botHandle,
		"email":          c.cfg.Email,
		"user_full_name": c.cfg.FullName,
		"user_password":  c.cfg.Password,
		"type":           "client",
	}

	status, body, err := c.do(ctx, "clone bot", http.MethodPost, c.cfg.TemplateHost+"/api/clone", "", payload)
	if err != nil {
		return false, err
	}
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return false, nil
	case status == http.StatusInternalServerError:
		c.log.Warn("clone returned 500, treating as already provisioned",
			"handle", botHandle, "body", truncate(body, 300))
		return true, nil
	default:
		return false, &RejectedError{Op: "clone bot", Status: status, Body: body}
	}
}

// Bearer scopes the client to one bot instance and credential. All
// credential-gated operations hang off the returned BotAPI.
func (c *Client) Bearer(baseURL, apiKey string) *BotAPI {
	return &BotAPI{c: c, base: baseURL, key: apiKey}
}

// BotAPI issues credential-bearing calls against a single bot instance.
type BotAPI struct {
	c    *Client
	base string
	key  string
}

// CreateKnowledgeSource creates the named article container. A 409 from the
// platform maps to ErrAlreadyExists so callers can keep going.
func (a *BotAPI) CreateKnowledgeSource(ctx context.Context, sourceID, name string) error {
	payload := map[string]string{"id": sourceID, "name": name}
	status, body, err := a.c.do(ctx, "create knowledge source", http.MethodPost, a.base+"/api/v2/knowledge/sources/", a.key, payload)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return nil
	case status == http.StatusConflict:
		return ErrAlreadyExists
	default:
		return &RejectedError{Op: "create knowledge source", Status: status, Body: body}
	}
}

// BulkUploadArticles uploads the article array in one request.
func (a *BotAPI) BulkUploadArticles(ctx context.Context, articles []Article) error {
	status, body, err := a.c.do(ctx, "bulk upload articles", http.MethodPost, a.base+"/api/v2/knowledge/bulk/articles/", a.key, articles)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &RejectedError{Op: "bulk upload articles", Status: status, Body: body}
	}
	return nil
}

// CreateChannel creates a messaging channel and returns its id.
func (a *BotAPI) CreateChannel(ctx context.Context, name, description string) (string, error) {
	payload := map[string]string{"name": name, "description": description, "modality": "messaging"}
	status, body, err := a.c.do(ctx, "create channel", http.MethodPost, a.base+"/api/v2/channels/", a.key, payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &RejectedError{Op: "create channel", Status: status, Body: body}
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil || out.ID == "" {
		return "", fmt.Errorf("create channel: cannot parse channel id from response %q", truncate(body, 200))
	}
	return out.ID, nil
}

// CreateConversation opens an empty conversation on a channel.
func (a *BotAPI) CreateConversation(ctx context.Context, channelID string) (Conversation, error) {
	payload := map[string]string{"channel_id": channelID}
	status, body, err := a.c.do(ctx, "create conversation", http.MethodPost, a.base+"/api/v2/conversations/", a.key, payload)
	if err != nil {
		return Conversation{}, err
	}
	if status < 200 || status > 299 {
		return Conversation{}, &RejectedError{Op: "create conversation", Status: status, Body: body}
	}
	var conv Conversation
	if err := json.Unmarshal([]byte(body), &conv); err != nil || conv.ID == "" {
		return Conversation{}, fmt.Errorf("create conversation: cannot parse response %q", truncate(body, 200))
	}
	return conv, nil
}

// PostMessage seeds a conversation with one end-user message.
func (a *BotAPI) PostMessage(ctx context.Context, conversationID, endUserID, body string) error {
	payload := map[string]any{
		"author":  map[string]string{"id": endUserID, "role": "end_user"},
		"content": map[string]string{"body": body, "type": "text"},
	}
	url := fmt.Sprintf("%s/api/v2/conversations/%s/messages/", a.base, conversationID)
	status, respBody, err := a.c.do(ctx, "post message", http.MethodPost, url, a.key, payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &RejectedError{Op: "post message", Status: status, Body: respBody}
	}
	return nil
}

// do issues one JSON request, retrying transport errors with exponential
// backoff up to MaxRetries. Any HTTP response, whatever its status, stops
// the retry loop; status handling belongs to the caller.
func (c *Client) do(ctx context.Context, op, method, url, bearer string, payload any) (int, string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("%s: encode payload: %w", op, err)
	}

	var status int
	var body string
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.log.Warn("transport error, will retry", "op", op, "error", err)
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		status = resp.StatusCode
		body = string(b)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.MaxRetries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return 0, "", &UnavailableError{Op: op, Err: err}
	}
	return status, body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
