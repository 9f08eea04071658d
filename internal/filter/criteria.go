package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sendrec/disha/internal/catalog"
	"github.com/sendrec/disha/internal/languages"
	"github.com/sendrec/disha/internal/validate"
)

// Criteria holds the user's independent filter predicates. The zero value
// of every field means "no constraint".
type Criteria struct {
	Language      string   `json:"language"`
	Source        string   `json:"source"`
	Categories    []string `json:"categories"`
	DurationBands []string `json:"durationBands"`
	Years         []string `json:"years"`
	TitleSearch   string   `json:"titleSearch"`
	FreeOnly      bool     `json:"freeOnly"`
}

// Defaults returns criteria with every constraint cleared. Lists are empty
// rather than nil so the serialized form always carries every field.
func Defaults() Criteria {
	return Criteria{
		Categories:    []string{},
		DurationBands: []string{},
		Years:         []string{},
	}
}

func (c Criteria) IsZero() bool {
	return c.Language == "" && c.Source == "" && len(c.Categories) == 0 &&
		len(c.DurationBands) == 0 && len(c.Years) == 0 &&
		strings.TrimSpace(c.TitleSearch) == "" && !c.FreeOnly
}

// Normalized fills nil lists so the value serializes with every field.
func (c Criteria) Normalized() Criteria {
	if c.Categories == nil {
		c.Categories = []string{}
	}
	if c.DurationBands == nil {
		c.DurationBands = []string{}
	}
	if c.Years == nil {
		c.Years = []string{}
	}
	return c
}

// Validate rejects values outside the selectable vocabularies and oversized
// input.
func (c Criteria) Validate() error {
	for _, msg := range []string{
		validate.TitleSearch(c.TitleSearch),
		validate.Categories(len(c.Categories)),
		validate.Years(len(c.Years)),
		validate.DurationBands(len(c.DurationBands)),
	} {
		if msg != "" {
			return errors.New(msg)
		}
	}
	if c.Language != "" && !isFilterLanguage(c.Language) {
		return fmt.Errorf("unknown language %q", c.Language)
	}
	if c.Source != "" {
		if _, ok := catalog.ParseSource(c.Source); !ok {
			return fmt.Errorf("unknown source %q", c.Source)
		}
	}
	for _, label := range c.DurationBands {
		if _, ok := BandByLabel(label); !ok {
			return fmt.Errorf("unknown duration band %q", label)
		}
	}
	for _, y := range c.Years {
		if _, err := strconv.Atoi(y); err != nil {
			return fmt.Errorf("invalid year %q", y)
		}
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return errors.New("category must not be empty")
		}
		if msg := validate.Category(cat); msg != "" {
			return errors.New(msg)
		}
	}
	return nil
}

func isFilterLanguage(name string) bool {
	for _, n := range languages.FilterNames() {
		if n == name {
			return true
		}
	}
	return false
}
