package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, key string, srv *httptest.Server) *Client {
	c, err := NewClient(key, srv.URL, srv.Client())
	require.NoError(t, err)
	return c
}

func TestSearchSendsQuery(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		gotQuery = map[string]string{}
		for k, v := range r.URL.Query() {
			gotQuery[k] = strings.Join(v, ",")
		}
		fmt.Fprint(w, `{"items":[{"id":{"kind":"youtube#video","videoId":"v1"},"snippet":{"title":"t","channelId":"c1"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, "k", srv)
	after := time.Date(2025, 5, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*3600))
	resp, err := c.Search(context.Background(), SearchParams{
		Query:             "AI 日本",
		PublishedAfter:    after,
		RegionCode:        "JP",
		RelevanceLanguage: "ja",
		MaxResults:        50,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "v1", resp.Items[0].ID.VideoID)
	assert.Equal(t, "c1", resp.Items[0].Snippet.ChannelID)

	assert.Equal(t, "AI 日本", gotQuery["q"])
	assert.Equal(t, "id,snippet", gotQuery["part"])
	assert.Equal(t, "video", gotQuery["type"])
	assert.Equal(t, "date", gotQuery["order"])
	assert.Equal(t, "50", gotQuery["maxResults"])
	assert.Equal(t, "2025-05-01T00:30:00Z", gotQuery["publishedAfter"])
	assert.Equal(t, "JP", gotQuery["regionCode"])
	assert.Equal(t, "ja", gotQuery["relevanceLanguage"])
	assert.Equal(t, "k", gotQuery["key"])
}

func TestVideosBatchesIDs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		ids := r.URL.Query()["id"]
		assert.LessOrEqual(t, len(ids), 50)
		items := make([]string, 0, len(ids))
		for _, id := range ids {
			items = append(items, fmt.Sprintf(`{"id":%q,"statistics":{"viewCount":"12345"},"contentDetails":{"duration":"PT1M"}}`, id))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, strings.Join(items, ","))
	}))
	defer srv.Close()

	ids := make([]string, 75)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%d", i)
	}

	c := newTestClient(t, "k", srv)
	resp, err := c.Videos(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, resp.Items, 75)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "12345", resp.Items[74].Statistics.ViewCount)
	assert.Equal(t, "PT1M", resp.Items[74].ContentDetails.Duration)
}

func TestChannelsMapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/channels", r.URL.Path)
		assert.Equal(t, "statistics,snippet,localizations", strings.Join(r.URL.Query()["part"], ","))
		fmt.Fprint(w, `{"items":[{"id":"c1",
			"snippet":{"title":"日本のチャンネル","country":"JP","defaultLanguage":"ja"},
			"statistics":{"subscriberCount":"5000"},
			"localizations":{"en":{"title":"Japan Channel"}}}]}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, "k", srv).Channels(context.Background(), []string{"c1"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	ch := resp.Items[0]
	assert.Equal(t, "JP", ch.Snippet.Country)
	assert.Equal(t, "ja", ch.Snippet.DefaultLanguage)
	assert.Equal(t, "5000", ch.Statistics.SubscriberCount)
	assert.Equal(t, "Japan Channel", ch.Localizations["en"].Title)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReason string
		wantMsg    string
	}{
		{
			name:       "quota envelope",
			status:     http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.","errors":[{"reason":"quotaExceeded"}]}}`,
			wantReason: "quotaExceeded",
			wantMsg:    "exceeded your quota",
		},
		{
			name:    "plain text body",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable",
			wantMsg: "upstream unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, "k", srv).Channels(context.Background(), []string{"c1"})

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantReason, apiErr.Reason)
			assert.Equal(t, "channels", apiErr.Endpoint)
			assert.Contains(t, apiErr.Message, tt.wantMsg)
		})
	}
}

func TestMissingKey(t *testing.T) {
	c, err := NewClient("", "http://127.0.0.1:1", nil)
	require.NoError(t, err)
	assert.False(t, c.HasKey())

	_, err = c.Search(context.Background(), SearchParams{Query: "x"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = c.Videos(context.Background(), []string{"v1"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestEmptyIDListMakesNoCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call to %s", r.URL.Path)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, "k", srv).Videos(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}
