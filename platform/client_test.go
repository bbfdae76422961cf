package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(templateHost string) *Client {
	return New(Config{
		TemplateHost: templateHost,
		CloneSecret:  "shh",
		Email:        "team@example.com",
		Password:     "hunter2",
		MaxRetries:   1,
	})
}

func TestClone(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/clone", r.URL.Path)
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "acme-ai-agent-demo", payload["new_handle"])
			assert.Equal(t, "shh", payload["clone_secret"])
			assert.Equal(t, "client", payload["type"])
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		already, err := newTestClient(srv.URL).Clone(context.Background(), "acme-ai-agent-demo")
		require.NoError(t, err)
		assert.False(t, already)
	})

	t.Run("500 means already exists", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "duplicate handle", http.StatusInternalServerError)
		}))
		defer srv.Close()

		already, err := newTestClient(srv.URL).Clone(context.Background(), "acme-ai-agent-demo")
		require.NoError(t, err)
		assert.True(t, already)
	})

	t.Run("other statuses are rejections", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad secret", http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Clone(context.Background(), "acme-ai-agent-demo")
		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusForbidden, rejected.Status)
		assert.Contains(t, rejected.Body, "bad secret")
	})

	t.Run("unreachable host is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // immediately, so every dial fails

		_, err := newTestClient(srv.URL).Clone(context.Background(), "acme-ai-agent-demo")
		var unavailable *UnavailableError
		require.ErrorAs(t, err, &unavailable)
	})
}

func TestBotAPI(t *testing.T) {
	t.Run("knowledge source conflict maps to ErrAlreadyExists", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v2/knowledge/sources/", r.URL.Path)
			require.Equal(t, "Bearer key123", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		api := newTestClient(srv.URL).Bearer(srv.URL, "key123")
		err := api.CreateKnowledgeSource(context.Background(), "demosource", "Demo Knowledge Source")
		assert.True(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("bulk upload sends raw article array", func(t *testing.T) {
		var got []Article
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v2/knowledge/bulk/articles/", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		articles := []Article{
			{ID: "1", Name: "What is Acme?", Content: "Acme makes anvils.", KnowledgeSourceID: "demosource"},
			{ID: "2", Name: "How do I return an anvil?", Content: "Carefully.", KnowledgeSourceID: "demosource"},
		}
		api := newTestClient(srv.URL).Bearer(srv.URL, "key123")
		require.NoError(t, api.BulkUploadArticles(context.Background(), articles))
		assert.Equal(t, articles, got)
	})

	t.Run("channel and conversation flow", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/v2/channels/":
				_, _ = w.Write([]byte(`{"id":"chan-1"}`))
			case "/api/v2/conversations/":
				_, _ = w.Write([]byte(`{"id":"conv-1","end_user_id":"eu-1"}`))
			case "/api/v2/conversations/conv-1/messages/":
				var payload map[string]map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "end_user", payload["author"]["role"])
				assert.Equal(t, "text", payload["content"]["type"])
				w.WriteHeader(http.StatusCreated)
			default:
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		api := newTestClient(srv.URL).Bearer(srv.URL, "key123")
		ctx := context.Background()

		channelID, err := api.CreateChannel(ctx, "Demo_Channel", "Automated demo channel")
		require.NoError(t, err)
		assert.Equal(t, "chan-1", channelID)

		conv, err := api.CreateConversation(ctx, channelID)
		require.NoError(t, err)
		assert.Equal(t, "conv-1", conv.ID)
		assert.Equal(t, "eu-1", conv.EndUserID)

		require.NoError(t, api.PostMessage(ctx, conv.ID, conv.EndUserID, "Where is my order?"))
	})

	t.Run("rejections carry the response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		api := newTestClient(srv.URL).Bearer(srv.URL, "bogus")
		err := api.BulkUploadArticles(context.Background(), []Article{{ID: "1"}})
		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusUnauthorized, rejected.Status)
		assert.Contains(t, rejected.Body, "invalid api key")
	})
}
