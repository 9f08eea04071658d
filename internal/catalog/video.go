package catalog

import "strings"

type Source string

const (
	SourceYouTube       Source = "youtube"
	SourceSpotify       Source = "spotify"
	SourceTransRadio    Source = "transradio"
	SourceTimelessToday Source = "timelesstoday"
)

// DefaultSource is the direct channel used when a click-through URL matches
// no known distribution channel.
const DefaultSource = SourceTimelessToday

const DefaultCategory = "Video"

// Video is the canonical catalog entity. Every field except IsNew is fixed
// once the catalog is loaded.
type Video struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ThumbnailURL    string `json:"thumbnail"`
	DurationMinutes int    `json:"duration"`
	Source          Source `json:"source"`
	PublishedYear   int    `json:"publishedYear"`
	PublishedMonth  int    `json:"publishedMonth"`
	PublishedDay    int    `json:"publishedDay,omitempty"`
	Language        string `json:"language"`
	URL             string `json:"url"`
	AudioOnly       bool   `json:"audioOnly"`
	LoginRequired   bool   `json:"loginRequired"`
	Category        string `json:"category"`
	IsNew           bool   `json:"isNew"`
	Timestamp       int64  `json:"timestamp"`
}

func Sources() []Source {
	return []Source{SourceYouTube, SourceTimelessToday, SourceSpotify, SourceTransRadio}
}

func ParseSource(s string) (Source, bool) {
	for _, src := range Sources() {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// SourceFromURL derives the distribution channel from a click-through URL.
func SourceFromURL(clickURL string) Source {
	lower := strings.ToLower(clickURL)
	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return SourceYouTube
	case strings.Contains(lower, "spotify.com"):
		return SourceSpotify
	case strings.Contains(lower, "transradio"):
		return SourceTransRadio
	default:
		return DefaultSource
	}
}
