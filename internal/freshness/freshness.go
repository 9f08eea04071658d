// Package freshness decides which catalog videos are highlighted as new.
//
// A video is new when it was published in the current calendar month and the
// user has not opened it. When that yields fewer than MinNew videos, unopened
// videos from the preceding months (newest first, at most LookbackMonths back)
// top the set up to exactly MinNew.
package freshness

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sendrec/disha/internal/catalog"
)

const (
	DefaultMinNew         = 2
	DefaultLookbackMonths = 1
)

type Classifier struct {
	clock          clockwork.Clock
	minNew         int
	lookbackMonths int
	location       *time.Location
}

func New(clock clockwork.Clock) *Classifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Classifier{
		clock:          clock,
		minNew:         DefaultMinNew,
		lookbackMonths: DefaultLookbackMonths,
		location:       time.Local,
	}
}

func (c *Classifier) SetMinNew(n int) {
	if n >= 0 {
		c.minNew = n
	}
}

func (c *Classifier) SetLookbackMonths(n int) {
	if n >= 0 {
		c.lookbackMonths = n
	}
}

// SetLocation sets the time zone that defines calendar months. It must match
// the zone the catalog was normalized in.
func (c *Classifier) SetLocation(loc *time.Location) {
	if loc != nil {
		c.location = loc
	}
}

// Classify sets IsNew on every video in place.
func (c *Classifier) Classify(videos []*catalog.Video, interacted map[string]struct{}) {
	now := c.clock.Now().In(c.location)
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.location)

	unopened := func(v *catalog.Video) bool {
		_, seen := interacted[v.ID]
		return !seen
	}

	selected := make(map[string]struct{})
	for _, v := range videos {
		v.IsNew = false
		if publishedIn(v, thisMonth) && unopened(v) {
			selected[v.ID] = struct{}{}
		}
	}

	for back := 1; back <= c.lookbackMonths && len(selected) < c.minNew; back++ {
		month := thisMonth.AddDate(0, -back, 0)
		var pool []*catalog.Video
		for _, v := range videos {
			if publishedIn(v, month) && unopened(v) {
				pool = append(pool, v)
			}
		}
		sort.SliceStable(pool, func(i, j int) bool {
			if pool[i].Timestamp != pool[j].Timestamp {
				return pool[i].Timestamp > pool[j].Timestamp
			}
			return pool[i].ID < pool[j].ID
		})
		for _, v := range pool {
			if len(selected) >= c.minNew {
				break
			}
			selected[v.ID] = struct{}{}
		}
	}

	for _, v := range videos {
		if _, ok := selected[v.ID]; ok {
			v.IsNew = true
		}
	}
}

func publishedIn(v *catalog.Video, month time.Time) bool {
	return v.PublishedYear == month.Year() && v.PublishedMonth == int(month.Month())-1
}
