package model

// MediaType distinguishes the two media kinds the platforms accept.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaItem references source media by URL. The upload pipeline downloads the
// bytes when the platform needs a binary transfer; direct-reference platforms
// use the URL as-is.
type MediaItem struct {
	URL       string    `json:"url"`
	Type      MediaType `json:"type"`
	MimeType  string    `json:"mime_type,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
}

// PostContent is the platform-independent content of a publish request plus
// the out-of-band metadata some platforms require.
type PostContent struct {
	Text      string      `json:"text"`
	Link      string      `json:"link,omitempty"`
	Media     []MediaItem `json:"media,omitempty"`
	Title     string      `json:"title,omitempty"`     // reddit, youtube, pinterest
	BoardID   string      `json:"board_id,omitempty"`  // pinterest
	Subreddit string      `json:"subreddit,omitempty"` // reddit
}

// Images returns only the image items.
func (c *PostContent) Images() []MediaItem {
	var out []MediaItem
	for _, m := range c.Media {
		if m.Type == MediaImage {
			out = append(out, m)
		}
	}
	return out
}

// Videos returns only the video items.
func (c *PostContent) Videos() []MediaItem {
	var out []MediaItem
	for _, m := range c.Media {
		if m.Type == MediaVideo {
			out = append(out, m)
		}
	}
	return out
}

// ValidationResult collects platform-specific content violations.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func (v *ValidationResult) Add(msg string) {
	v.Valid = false
	v.Errors = append(v.Errors, msg)
}

func NewValidationResult() *ValidationResult { return &ValidationResult{Valid: true} }
