package models

import "time"

// SearchResultRow is one line of the results table
type SearchResultRow struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	ViewCount       int64  `json:"view_count"`
	PublishedAt     string `json:"published_at"`
	Duration        string `json:"duration"`
	ChannelName     string `json:"channel_name"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// ChannelClassification is the locale verdict for one channel
type ChannelClassification struct {
	ChannelID   string `json:"channel_id"`
	IsLocal     bool   `json:"is_local"`
	Country     string `json:"country"`
	Language    string `json:"language"`
	ScriptMatch bool   `json:"script_match"`
	Reason      string `json:"reason,omitempty"`
}

// ExcludedChannel records a channel the locale filter dropped
type ExcludedChannel struct {
	Name      string `json:"name"`
	Country   string `json:"country"`
	Language  string `json:"language"`
	HasScript bool   `json:"has_script"`
}

// SearchStats summarizes how many items survived each step
type SearchStats struct {
	TotalVideosFound int `json:"total_videos_found"`
	TotalChannels    int `json:"total_channels"`
	FilteredChannels int `json:"filtered_channels"`
	FinalVideos      int `json:"final_videos"`
}

// SearchResult stores what the dashboard shows after a search
type SearchResult struct {
	Rows         []SearchResultRow `json:"rows"`
	Excluded     []ExcludedChannel `json:"excluded"`
	Stats        SearchStats       `json:"stats"`
	QuotaCharged int               `json:"quota_charged"`
	LocalOnly    bool              `json:"local_only"`
	SearchedAt   time.Time         `json:"searched_at"`
}

// QuotaUsage is the quota meter state
type QuotaUsage struct {
	Used    int     `json:"used"`
	Limit   int     `json:"limit"`
	Percent float64 `json:"percent"`
	Level   string  `json:"level"`
}
