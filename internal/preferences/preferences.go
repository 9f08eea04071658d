// Package preferences stores the interface language chosen by the user.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sendrec/disha/internal/kvstore"
	"github.com/sendrec/disha/internal/languages"
)

const (
	StorageKey      = "disha-language-preference"
	DefaultLanguage = "hi"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

type Preferences struct {
	kv kvstore.Store

	mu       sync.Mutex
	loaded   bool
	language string
}

func New(kv kvstore.Store) *Preferences {
	return &Preferences{kv: kv}
}

// Language returns the saved interface language, or DefaultLanguage when
// nothing valid is stored.
func (p *Preferences) Language(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.language
	}
	p.language = DefaultLanguage
	p.loaded = true

	saved, err := p.kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
	case err != nil:
		slog.Warn("preferences: failed to read language", "error", err)
	case languages.IsSupported(saved):
		p.language = saved
	}
	return p.language
}

// SetLanguage switches the interface language. Only exact 2-letter codes are
// accepted; a failed write still changes the language for this session.
func (p *Preferences) SetLanguage(ctx context.Context, code string) error {
	if !languages.IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	p.mu.Lock()
	p.language = code
	p.loaded = true
	p.mu.Unlock()

	if err := p.kv.Set(ctx, StorageKey, code); err != nil {
		slog.Warn("preferences: failed to persist language", "error", err)
	}
	return nil
}
