package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbchen/factwatch/internal/common"
)

func TestSearch_RequestParameters(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"items":[{"title":"台積電 FactSet","link":"https://news.cnyes.com/news/id/1","displayLink":"news.cnyes.com"}],"searchInformation":{"totalResults":"1"}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithLogger(common.GetLogger()))

	resp, err := client.Search(context.Background(), "2330 台積電 FactSet", "api-key", "cse-id")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "news.cnyes.com", resp.Items[0].DisplayLink)
	assert.Equal(t, "1", resp.SearchInformation.TotalResults)

	assert.Equal(t, "2330 台積電 FactSet", query.Get("q"))
	assert.Equal(t, "cse-id", query.Get("cx"))
	assert.Equal(t, "api-key", query.Get("key"))
	assert.Equal(t, "10", query.Get("num"))
	assert.Equal(t, "y1", query.Get("dateRestrict"))
	assert.Equal(t, "lang_zh-TW|lang_en", query.Get("lr"))
	assert.Equal(t, "off", query.Get("safe"))
	assert.Equal(t, responseFields, query.Get("fields"))
}

func TestSearch_QuotaSignals(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantQuota  bool
	}{
		{"http 429", http.StatusTooManyRequests, `rate limited`, true},
		{"quotaExceeded payload", http.StatusForbidden, `{"error":{"errors":[{"reason":"quotaExceeded"}]}}`, true},
		{"quota marker payload", http.StatusBadRequest, `daily quota reached`, true},
		{"plain server error", http.StatusInternalServerError, `boom`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(WithBaseURL(server.URL))
			_, err := client.Search(context.Background(), "q", "k", "c")
			require.Error(t, err)

			var quotaErr *QuotaError
			var apiErr *APIError
			if tt.wantQuota {
				assert.ErrorAs(t, err, &quotaErr)
				assert.Equal(t, tt.statusCode, quotaErr.StatusCode)
			} else {
				assert.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			}
		})
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Search(ctx, "q", "k", "c")
	assert.Error(t, err)
}
