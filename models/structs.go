package models

// SearchListResponse holds the response of the search.list endpoint
type SearchListResponse struct {
	Items []SearchItem `json:"items"`
}

// SearchItem is one search hit
type SearchItem struct {
	ID      SearchItemID `json:"id"`
	Snippet Snippet      `json:"snippet"`
}

// SearchItemID identifies the resource behind a search hit
type SearchItemID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// VideoListResponse holds the response of the videos.list endpoint
type VideoListResponse struct {
	Items []VideoItem `json:"items"`
}

// VideoItem holds the information of the video
type VideoItem struct {
	ID             string          `json:"id"`
	Snippet        Snippet         `json:"snippet"`
	Statistics     VideoStatistics `json:"statistics"`
	ContentDetails ContentDetails  `json:"contentDetails"`
}

// Snippet is shared by search hits and videos
type Snippet struct {
	PublishedAt  string `json:"publishedAt"`
	ChannelID    string `json:"channelId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
}

// VideoStatistics counters come back as decimal strings
type VideoStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

// ContentDetails holds the video duration
type ContentDetails struct {
	Duration string `json:"duration"`
}

// ChannelListResponse holds the response of the channels.list endpoint
type ChannelListResponse struct {
	Items []ChannelItem `json:"items"`
}

// ChannelItem holds the information of the channel
type ChannelItem struct {
	ID            string                         `json:"id"`
	Snippet       ChannelSnippet                 `json:"snippet"`
	Statistics    ChannelStatistics              `json:"statistics"`
	Localizations map[string]ChannelLocalization `json:"localizations,omitempty"`
}

// ChannelSnippet carries the declared country and language
type ChannelSnippet struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Country         string `json:"country"`
	DefaultLanguage string `json:"defaultLanguage"`
}

// ChannelStatistics counters come back as decimal strings
type ChannelStatistics struct {
	SubscriberCount string `json:"subscriberCount"`
	VideoCount      string `json:"videoCount"`
	ViewCount       string `json:"viewCount"`
}

// ChannelLocalization is a translated title/description pair
type ChannelLocalization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
