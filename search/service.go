package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/locale"
	"github.com/tomsarry/tubescope/models"
	"github.com/tomsarry/tubescope/quota"
	"github.com/tomsarry/tubescope/utils"
	"github.com/tomsarry/tubescope/youtube"
)

// DefaultMaxResults caps one search.
const DefaultMaxResults = 50

// localQuerySuffix is appended to the keyword when only local channels are wanted.
const localQuerySuffix = " 日本"

var (
	// ErrEmptyQuery is returned for a blank keyword.
	ErrEmptyQuery = errors.New("search: keyword is empty")
	// ErrNoData is returned when a details call comes back without items.
	ErrNoData = errors.New("search: api returned no usable data")
)

// API is the part of the YouTube client the orchestrator uses.
type API interface {
	HasKey() bool
	Search(ctx context.Context, p youtube.SearchParams) (*models.SearchListResponse, error)
	Videos(ctx context.Context, ids []string) (*models.VideoListResponse, error)
	Channels(ctx context.Context, ids []string) (*models.ChannelListResponse, error)
}

// Params is one user search.
type Params struct {
	Query          string
	PublishedAfter time.Time
	LocalOnly      bool
}

// Service runs search, video details and channel details in sequence and
// builds the result table.
type Service struct {
	api        API
	classifier *locale.Classifier
	maxResults int
	now        func() time.Time
}

// NewService wires the orchestrator. maxResults <= 0 means DefaultMaxResults.
func NewService(api API, classifier *locale.Classifier, maxResults int) *Service {
	if maxResults <= 0 || maxResults > utils.MaxIDsPerRequest {
		maxResults = DefaultMaxResults
	}
	return &Service{
		api:        api,
		classifier: classifier,
		maxResults: maxResults,
		now:        time.Now,
	}
}

// MaxResults is the per-search cap.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// Search runs one search. Any failed call aborts the whole search: there are
// no partial results. QuotaCharged on the result is what the caller must add
// to today's usage.
func (s *Service) Search(ctx context.Context, p Params) (*models.SearchResult, error) {
	if !s.api.HasKey() {
		return nil, youtube.ErrMissingAPIKey
	}
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	sp := youtube.SearchParams{
		Query:          query,
		PublishedAfter: p.PublishedAfter,
		RegionCode:     s.classifier.Region,
		MaxResults:     s.maxResults,
	}
	if p.LocalOnly {
		sp.Query = query + localQuerySuffix
		sp.RelevanceLanguage = s.classifier.Language
	}

	found, err := s.api.Search(ctx, sp)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}

	result := &models.SearchResult{
		Rows:       []models.SearchResultRow{},
		Excluded:   []models.ExcludedChannel{},
		LocalOnly:  p.LocalOnly,
		SearchedAt: s.now(),
	}
	result.Stats.TotalVideosFound = len(found.Items)

	videoIDs := make([]string, 0, len(found.Items))
	for _, item := range found.Items {
		videoIDs = append(videoIDs, item.ID.VideoID)
	}
	videoIDs = utils.UniqueIDs(videoIDs)
	if len(videoIDs) == 0 {
		return result, nil
	}

	videos, err := s.api.Videos(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}
	if len(videos.Items) == 0 {
		return nil, fmt.Errorf("video details: %w", ErrNoData)
	}

	channelIDs := make([]string, 0, len(videos.Items))
	for _, v := range videos.Items {
		channelIDs = append(channelIDs, v.Snippet.ChannelID)
	}
	channelIDs = utils.UniqueIDs(channelIDs)

	channels, err := s.api.Channels(ctx, channelIDs)
	if err != nil {
		return nil, fmt.Errorf("channel details: %w", err)
	}
	if len(channels.Items) == 0 {
		return nil, fmt.Errorf("channel details: %w", ErrNoData)
	}
	result.Stats.TotalChannels = len(channels.Items)

	accepted := s.acceptChannels(channels.Items, videos.Items, p.LocalOnly, result)

	for _, v := range videos.Items {
		ch, ok := accepted[v.Snippet.ChannelID]
		if !ok {
			continue
		}
		result.Rows = append(result.Rows, models.SearchResultRow{
			VideoID:         v.ID,
			Title:           v.Snippet.Title,
			ViewCount:       parseCount(v.Statistics.ViewCount),
			PublishedAt:     formatPublished(v.Snippet.PublishedAt),
			Duration:        utils.FormatDuration(v.ContentDetails.Duration),
			ChannelName:     ch.Snippet.Title,
			SubscriberCount: parseCount(ch.Statistics.SubscriberCount),
		})
	}
	result.Stats.FinalVideos = len(result.Rows)
	result.QuotaCharged = quota.SearchCost(len(found.Items), len(channelIDs))

	log.Info().
		Str("query", sp.Query).
		Bool("local_only", p.LocalOnly).
		Int("videos_found", result.Stats.TotalVideosFound).
		Int("channels", result.Stats.TotalChannels).
		Int("filtered_channels", result.Stats.FilteredChannels).
		Int("rows", result.Stats.FinalVideos).
		Int("quota_charged", result.QuotaCharged).
		Msg("search complete")

	return result, nil
}

// acceptChannels classifies every channel and returns the ones whose videos
// may appear in the table. Rejected channels are recorded on result.
func (s *Service) acceptChannels(channels []models.ChannelItem, videos []models.VideoItem, localOnly bool, result *models.SearchResult) map[string]models.ChannelItem {
	accepted := make(map[string]models.ChannelItem, len(channels))
	if !localOnly {
		for _, ch := range channels {
			accepted[ch.ID] = ch
		}
		return accepted
	}

	texts := make(map[string][]locale.VideoText)
	for _, v := range videos {
		texts[v.Snippet.ChannelID] = append(texts[v.Snippet.ChannelID], locale.VideoText{
			Title:       v.Snippet.Title,
			Description: v.Snippet.Description,
		})
	}

	for _, ch := range channels {
		verdict := s.classifier.Classify(locale.Channel{
			ID:       ch.ID,
			Title:    ch.Snippet.Title,
			Country:  ch.Snippet.Country,
			Language: ch.Snippet.DefaultLanguage,
		}, texts[ch.ID])

		if verdict.IsLocal {
			accepted[ch.ID] = ch
			continue
		}

		result.Stats.FilteredChannels++
		result.Excluded = append(result.Excluded, models.ExcludedChannel{
			Name:      ch.Snippet.Title,
			Country:   verdict.Country,
			Language:  verdict.Language,
			HasScript: verdict.ScriptMatch,
		})
	}
	return accepted
}

func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatPublished(raw string) string {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return ts.UTC().Format("2006-01-02 15:04")
}
