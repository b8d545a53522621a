package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/backend"
)

func TestNewHTTPClient(t *testing.T) {
	tests := map[string]struct {
		config backend.HTTPClientConfig
		expErr bool
	}{
		"valid config should create client": {
			config: backend.HTTPClientConfig{BaseURL: "http://localhost:8080"},
			expErr: false,
		},
		"missing base URL should fail": {
			config: backend.HTTPClientConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			client, err := backend.NewHTTPClient(test.config)

			if test.expErr {
				require.Error(t, err)
				require.Nil(t, client)
			} else {
				require.NoError(t, err)
				require.NotNil(t, client)
			}
		})
	}
}

func TestHTTPClientGenerate(t *testing.T) {
	t.Run("a successful request returns the streaming body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/generations", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

			var req backend.GenerateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "tpl-1", req.TemplateID)
			assert.Equal(t, "A welcome email", req.Prompt)

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "data: {\"type\":\"progress\",\"step\":\"validating\",\"message\":\"Validating\"}\n")
		}))
		defer server.Close()

		client, err := backend.NewHTTPClient(backend.HTTPClientConfig{BaseURL: server.URL})
		require.NoError(t, err)

		body, err := client.Generate(context.Background(), backend.GenerateRequest{
			TemplateID: "tpl-1",
			Prompt:     "A welcome email",
			OwnerID:    "user-1",
		})
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\"type\":\"progress\"")
	})

	t.Run("a non-200 response is an error including the body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client, err := backend.NewHTTPClient(backend.HTTPClientConfig{BaseURL: server.URL})
		require.NoError(t, err)

		body, err := client.Generate(context.Background(), backend.GenerateRequest{TemplateID: "tpl-1", Prompt: "x", OwnerID: "u"})
		require.Error(t, err)
		require.Nil(t, body)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "too many requests")
	})
}

func TestHTTPClientTemplateExists(t *testing.T) {
	tests := map[string]struct {
		status    int
		expExists bool
		expErr    bool
	}{
		"200 means the template exists":        {status: http.StatusOK, expExists: true},
		"404 means the template doesn't exist": {status: http.StatusNotFound, expExists: false},
		"any other status is an error":         {status: http.StatusInternalServerError, expErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/templates/tpl-1", r.URL.Path)
				w.WriteHeader(test.status)
			}))
			defer server.Close()

			client, err := backend.NewHTTPClient(backend.HTTPClientConfig{BaseURL: server.URL})
			require.NoError(t, err)

			exists, err := client.TemplateExists(context.Background(), "tpl-1")

			if test.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expExists, exists)
			}
		})
	}
}
