package catalog

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

const (
	loadKey             = "catalog"
	defaultFetchTimeout = 30 * time.Second
)

// Classifier sets IsNew on every video of a freshly loaded catalog.
type Classifier interface {
	Classify(videos []*Video, interacted map[string]struct{})
}

// InteractionSource supplies the persisted set of opened videos and accepts
// the set of IDs still present in the catalog so stale entries can be dropped.
type InteractionSource interface {
	Interacted() map[string]struct{}
	PruneAndPersist(ctx context.Context, valid map[string]struct{})
}

// Loader owns the in-memory catalog. It fetches the document once, coalescing
// concurrent callers onto a single in-flight fetch, and caches the classified
// result. A failed fetch is not cached.
type Loader struct {
	fetcher      Fetcher
	classifier   Classifier
	interactions InteractionSource
	location     *time.Location
	fetchTimeout time.Duration

	group   singleflight.Group
	waiting atomic.Int32

	mu     sync.RWMutex
	state  State
	videos []*Video
	index  map[string]*Video
}

func NewLoader(fetcher Fetcher, classifier Classifier) *Loader {
	return &Loader{
		fetcher:      fetcher,
		classifier:   classifier,
		location:     time.Local,
		fetchTimeout: defaultFetchTimeout,
		state:        StateUninitialized,
	}
}

func (l *Loader) SetInteractions(src InteractionSource) {
	l.interactions = src
}

// SetLocation sets the time zone publish dates are interpreted in.
func (l *Loader) SetLocation(loc *time.Location) {
	if loc != nil {
		l.location = loc
	}
}

// SetFetchTimeout bounds a single fetch of the document.
func (l *Loader) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		l.fetchTimeout = d
	}
}

func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Load returns the catalog sorted newest first. On failure it returns an
// empty slice and the next call fetches again.
func (l *Loader) Load(ctx context.Context) []Video {
	if videos, ok := l.cached(); ok {
		return videos
	}

	ch := l.group.DoChan(loadKey, func() (any, error) {
		if _, ok := l.cached(); ok {
			return nil, nil
		}
		return nil, l.fetchAndClassify(context.WithoutCancel(ctx))
	})

	l.waiting.Add(1)
	defer l.waiting.Add(-1)
	select {
	case res := <-ch:
		if res.Err != nil {
			return []Video{}
		}
	case <-ctx.Done():
		return []Video{}
	}

	videos, _ := l.cached()
	if videos == nil {
		return []Video{}
	}
	return videos
}

// Lookup returns a copy of the cached entry for id.
func (l *Loader) Lookup(id string) (Video, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.index[id]
	if !ok {
		return Video{}, false
	}
	return *v, true
}

// ClearNew retracts the new flag of a cached entry in place. It reports
// whether the entry exists.
func (l *Loader) ClearNew(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.index[id]
	if !ok {
		return false
	}
	v.IsNew = false
	return true
}

func (l *Loader) cached() ([]Video, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateReady {
		return nil, false
	}
	out := make([]Video, len(l.videos))
	for i, v := range l.videos {
		out[i] = *v
	}
	return out, true
}

func (l *Loader) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loader) fetchAndClassify(ctx context.Context) error {
	l.setState(StateLoading)

	fetchCtx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	start := time.Now()
	data, err := l.fetcher.Fetch(fetchCtx)
	if err != nil {
		slog.Error("catalog: fetch failed", "error", err)
		l.setState(StateFailed)
		return err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		slog.Error("catalog: parse failed", "error", err)
		l.setState(StateFailed)
		return err
	}

	videos := l.normalizeAll(doc)
	valid := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		valid[v.ID] = struct{}{}
	}

	interacted := map[string]struct{}{}
	if l.interactions != nil {
		interacted = l.interactions.Interacted()
	}
	if l.classifier != nil {
		l.classifier.Classify(videos, interacted)
	}

	index := make(map[string]*Video, len(videos))
	for _, v := range videos {
		index[v.ID] = v
	}

	l.mu.Lock()
	l.videos = videos
	l.index = index
	l.state = StateReady
	l.mu.Unlock()

	if l.interactions != nil {
		// Opens recorded after the snapshot found no index to clear.
		for id := range l.interactions.Interacted() {
			if _, seen := interacted[id]; !seen {
				l.ClearNew(id)
			}
		}
		l.interactions.PruneAndPersist(ctx, valid)
	}

	slog.Info("catalog: loaded", "videos", len(videos), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (l *Loader) normalizeAll(doc Document) []*Video {
	keys := make([]string, 0, len(doc.Videos))
	for k := range doc.Videos {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]struct{}, len(keys))
	videos := make([]*Video, 0, len(keys))
	for _, k := range keys {
		v, ok := Normalize(doc.Videos[k], l.location)
		if !ok {
			slog.Warn("catalog: skipping record without video id", "key", k)
			continue
		}
		if _, dup := seen[v.ID]; dup {
			slog.Warn("catalog: skipping duplicate video id", "key", k, "video_id", v.ID)
			continue
		}
		seen[v.ID] = struct{}{}
		videos = append(videos, &v)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].Timestamp != videos[j].Timestamp {
			return videos[i].Timestamp > videos[j].Timestamp
		}
		return videos[i].ID < videos[j].ID
	})
	return videos
}
