package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/tomsarry/tubescope/models"
	"github.com/tomsarry/tubescope/utils"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("youtube: YOUTUBE_API_KEY is not set")

// APIError is a non-200 answer from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("youtube %s: %d %s: %s", e.Endpoint, e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube %s: status %d", e.Endpoint, e.StatusCode)
}

// SearchParams are the search.list query options the dashboard uses.
type SearchParams struct {
	Query             string
	PublishedAfter    time.Time
	RegionCode        string
	RelevanceLanguage string
	MaxResults        int
}

// Client calls the three list endpoints the dashboard needs through the
// Data API v3 SDK. It never retries; every failure goes back to the caller.
type Client struct {
	apiKey string
	svc    *ytapi.Service
}

// NewClient returns a client. An empty endpoint means the SDK default and a
// nil httpClient means http.DefaultClient. The key travels as the "key"
// query parameter on every call.
func NewClient(apiKey, endpoint string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	keyed := &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: &transport.APIKey{Key: apiKey, Transport: httpClient.Transport},
	}

	opts := []option.ClientOption{option.WithHTTPClient(keyed)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(endpoint, "/")+"/"))
	}
	svc, err := ytapi.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: init service: %w", err)
	}
	return &Client{apiKey: apiKey, svc: svc}, nil
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// Search runs search.list restricted to videos, newest first.
func (c *Client) Search(ctx context.Context, p SearchParams) (*models.SearchListResponse, error) {
	if !c.HasKey() {
		return nil, ErrMissingAPIKey
	}
	call := c.svc.Search.List([]string{"id", "snippet"}).
		Q(p.Query).
		Type("video").
		Order("date").
		MaxResults(int64(p.MaxResults))
	if !p.PublishedAfter.IsZero() {
		call = call.PublishedAfter(p.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if p.RegionCode != "" {
		call = call.RegionCode(p.RegionCode)
	}
	if p.RelevanceLanguage != "" {
		call = call.RelevanceLanguage(p.RelevanceLanguage)
	}

	start := time.Now()
	resp, err := call.Context(ctx).Do()
	logCall("search", start, err)
	if err != nil {
		return nil, apiError("search", err)
	}

	out := &models.SearchListResponse{Items: make([]models.SearchItem, 0, len(resp.Items))}
	for _, it := range resp.Items {
		var item models.SearchItem
		if it.Id != nil {
			item.ID = models.SearchItemID{Kind: it.Id.Kind, VideoID: it.Id.VideoId}
		}
		if s := it.Snippet; s != nil {
			item.Snippet = models.Snippet{
				PublishedAt:  s.PublishedAt,
				ChannelID:    s.ChannelId,
				Title:        s.Title,
				Description:  s.Description,
				ChannelTitle: s.ChannelTitle,
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// Videos runs videos.list for ids, batching 50 ids per call.
func (c *Client) Videos(ctx context.Context, ids []string) (*models.VideoListResponse, error) {
	out := &models.VideoListResponse{}
	for _, batch := range utils.ChunkIDs(ids, utils.MaxIDsPerRequest) {
		if !c.HasKey() {
			return nil, ErrMissingAPIKey
		}
		start := time.Now()
		resp, err := c.svc.Videos.List([]string{"statistics", "snippet", "contentDetails"}).
			Id(batch...).
			Context(ctx).
			Do()
		logCall("videos", start, err)
		if err != nil {
			return nil, apiError("videos", err)
		}
		for _, v := range resp.Items {
			out.Items = append(out.Items, videoItem(v))
		}
	}
	return out, nil
}

// Channels runs channels.list for ids, batching 50 ids per call.
func (c *Client) Channels(ctx context.Context, ids []string) (*models.ChannelListResponse, error) {
	out := &models.ChannelListResponse{}
	for _, batch := range utils.ChunkIDs(ids, utils.MaxIDsPerRequest) {
		if !c.HasKey() {
			return nil, ErrMissingAPIKey
		}
		start := time.Now()
		resp, err := c.svc.Channels.List([]string{"statistics", "snippet", "localizations"}).
			Id(batch...).
			Context(ctx).
			Do()
		logCall("channels", start, err)
		if err != nil {
			return nil, apiError("channels", err)
		}
		for _, ch := range resp.Items {
			out.Items = append(out.Items, channelItem(ch))
		}
	}
	return out, nil
}

func videoItem(v *ytapi.Video) models.VideoItem {
	item := models.VideoItem{ID: v.Id}
	if s := v.Snippet; s != nil {
		item.Snippet = models.Snippet{
			PublishedAt:  s.PublishedAt,
			ChannelID:    s.ChannelId,
			Title:        s.Title,
			Description:  s.Description,
			ChannelTitle: s.ChannelTitle,
		}
	}
	if st := v.Statistics; st != nil {
		item.Statistics = models.VideoStatistics{
			ViewCount:    count(st.ViewCount),
			LikeCount:    count(st.LikeCount),
			CommentCount: count(st.CommentCount),
		}
	}
	if cd := v.ContentDetails; cd != nil {
		item.ContentDetails = models.ContentDetails{Duration: cd.Duration}
	}
	return item
}

func channelItem(ch *ytapi.Channel) models.ChannelItem {
	item := models.ChannelItem{ID: ch.Id}
	if s := ch.Snippet; s != nil {
		item.Snippet = models.ChannelSnippet{
			Title:           s.Title,
			Description:     s.Description,
			Country:         s.Country,
			DefaultLanguage: s.DefaultLanguage,
		}
	}
	if st := ch.Statistics; st != nil {
		item.Statistics = models.ChannelStatistics{
			SubscriberCount: count(st.SubscriberCount),
			VideoCount:      count(st.VideoCount),
			ViewCount:       count(st.ViewCount),
		}
	}
	if len(ch.Localizations) > 0 {
		item.Localizations = make(map[string]models.ChannelLocalization, len(ch.Localizations))
		for lang, l := range ch.Localizations {
			item.Localizations[lang] = models.ChannelLocalization{Title: l.Title, Description: l.Description}
		}
	}
	return item
}

// count renders an SDK counter the way the raw API sends it.
func count(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func logCall(endpoint string, start time.Time, err error) {
	status := http.StatusOK
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		status = gerr.Code
	} else if err != nil {
		status = 0
	}
	log.Debug().
		Str("endpoint", endpoint).
		Int("status", status).
		Dur("duration_ms", time.Since(start)).
		Msg("youtube call")
}

// apiError turns SDK error responses into *APIError. Transport and decode
// failures are wrapped as they are.
func apiError(endpoint string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("youtube %s: %w", endpoint, err)
	}

	apiErr := &APIError{Endpoint: endpoint, StatusCode: gerr.Code, Message: gerr.Message}
	if len(gerr.Errors) > 0 {
		apiErr.Reason = gerr.Errors[0].Reason
	}
	if apiErr.Message == "" && gerr.Body != "" {
		apiErr.Message = strings.TrimSpace(gerr.Body[:min(len(gerr.Body), 512)])
	}
	return apiErr
}
