package filter

// DurationBand is a named interval over video length in minutes. A duration
// is inside the band when it is >= Min and < Max, for each bound that is set.
type DurationBand struct {
	Label string `json:"label"`
	Min   *int   `json:"min,omitempty"`
	Max   *int   `json:"max,omitempty"`
}

func (b DurationBand) Contains(minutes int) bool {
	if b.Min != nil && minutes < *b.Min {
		return false
	}
	if b.Max != nil && minutes >= *b.Max {
		return false
	}
	return true
}

func bound(n int) *int { return &n }

var durationBands = []DurationBand{
	{Label: "Any Duration"},
	{Label: "< 10 min", Max: bound(10)},
	{Label: "10-20 min", Min: bound(10), Max: bound(20)},
	{Label: "20-40 min", Min: bound(20), Max: bound(40)},
	{Label: "40-60 min", Min: bound(40), Max: bound(60)},
	{Label: "> 1 hour", Min: bound(60)},
}

func DurationBands() []DurationBand {
	out := make([]DurationBand, len(durationBands))
	copy(out, durationBands)
	return out
}

func BandByLabel(label string) (DurationBand, bool) {
	for _, b := range durationBands {
		if b.Label == label {
			return b, true
		}
	}
	return DurationBand{}, false
}
