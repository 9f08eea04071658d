package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sendrec/disha/internal/languages"
)

const (
	nanosPerMinute = 60 * 1e9
	maxMinutes     = math.MaxInt32
)

// Document is the catalog as published: a map of raw records keyed arbitrarily.
type Document struct {
	Videos map[string]RawVideo `json:"videos"`
}

// RawVideo mirrors a record of the catalog document. Optional numeric fields
// are pointers so absence can be told apart from zero.
type RawVideo struct {
	VideoID       string   `json:"VideoID"`
	Name          string   `json:"Name"`
	Description   string   `json:"Description"`
	ThumbnailURL  string   `json:"ThumbnailURL"`
	Duration      *float64 `json:"Duration"`
	VideoDuration *float64 `json:"VideoDuration"`
	ClickURL      string   `json:"ClickURL"`
	PublishYear   int      `json:"PublishYear"`
	PublishMonth  *int     `json:"PublishMonth"`
	PublishDay    *int     `json:"PublishDay"`
	Language      string   `json:"Language"`
	AudioOnly     bool     `json:"AudioOnly"`
	LoginRequired bool     `json:"LoginRequired"`
	Category      string   `json:"Category"`
}

// ParseDocument decodes the envelope strictly and each record on its own.
// A record that does not decode is logged and left out.
func ParseDocument(data []byte) (Document, error) {
	var envelope struct {
		Videos map[string]json.RawMessage `json:"videos"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}

	doc := Document{Videos: make(map[string]RawVideo, len(envelope.Videos))}
	for key, record := range envelope.Videos {
		var raw RawVideo
		if err := json.Unmarshal(record, &raw); err != nil {
			slog.Warn("catalog: skipping malformed record", "key", key, "error", err)
			continue
		}
		doc.Videos[key] = raw
	}
	return doc, nil
}

// Normalize maps a raw record to a Video. Defaults for absent fields:
// description "", duration 0, January, first day of the month, language
// "en", category "Video", flags false. Records without an ID are rejected.
func Normalize(raw RawVideo, loc *time.Location) (Video, bool) {
	id := strings.TrimSpace(raw.VideoID)
	if id == "" {
		return Video{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	month := 1
	if raw.PublishMonth != nil && *raw.PublishMonth >= 1 && *raw.PublishMonth <= 12 {
		month = *raw.PublishMonth
	}
	day := 0
	if raw.PublishDay != nil && *raw.PublishDay >= 1 && *raw.PublishDay <= daysIn(raw.PublishYear, month, loc) {
		day = *raw.PublishDay
	}
	dayOfMonth := day
	if dayOfMonth == 0 {
		dayOfMonth = 1
	}
	published := time.Date(raw.PublishYear, time.Month(month), dayOfMonth, 0, 0, 0, 0, loc)

	category := strings.TrimSpace(raw.Category)
	if category == "" {
		category = DefaultCategory
	}

	return Video{
		ID:              id,
		Title:           raw.Name,
		Description:     raw.Description,
		ThumbnailURL:    raw.ThumbnailURL,
		DurationMinutes: durationMinutes(raw),
		Source:          SourceFromURL(raw.ClickURL),
		PublishedYear:   raw.PublishYear,
		PublishedMonth:  month - 1,
		PublishedDay:    day,
		Language:        languages.Normalize(raw.Language),
		URL:             raw.ClickURL,
		AudioOnly:       raw.AudioOnly,
		LoginRequired:   raw.LoginRequired,
		Category:        category,
		Timestamp:       published.UnixMilli(),
	}, true
}

func durationMinutes(raw RawVideo) int {
	nanos := raw.Duration
	if nanos == nil {
		nanos = raw.VideoDuration
	}
	if nanos == nil || *nanos <= 0 || math.IsNaN(*nanos) {
		return 0
	}
	minutes := math.Round(*nanos / nanosPerMinute)
	if minutes >= maxMinutes {
		return maxMinutes
	}
	return int(minutes)
}

func daysIn(year, month int, loc *time.Location) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc).Day()
}
