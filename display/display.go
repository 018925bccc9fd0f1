package display

import (
	"context"
	"errors"

	"github.com/OpenNHP/opennhp/nhp/log"
)

var ErrNoDisplays = errors.New("no attached displays found")

// Rect is a window or display rectangle in virtual-screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size is a window size without a position.
type Size struct {
	Width  int
	Height int
}

// Contains reports whether the point lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Fit decides the initial window geometry. The saved rect is used only if
// its origin falls inside one of the attached displays; otherwise the
// default size is returned with ok=false and the caller lets the window
// system place it.
func Fit(saved *Rect, displays []Rect, def Size) (Rect, bool) {
	fallback := Rect{Width: def.Width, Height: def.Height}
	if saved == nil || saved.Empty() {
		return fallback, false
	}
	for _, d := range displays {
		if d.Empty() {
			continue
		}
		if d.Contains(saved.X, saved.Y) {
			return *saved, true
		}
	}
	return fallback, false
}

// Provider lists the displays currently attached.
type Provider interface {
	Displays(ctx context.Context) ([]Rect, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]Rect, error)

func (f ProviderFunc) Displays(ctx context.Context) ([]Rect, error) {
	return f(ctx)
}

// Chain tries providers in order and returns the first non-empty result.
type Chain []Provider

func (c Chain) Displays(ctx context.Context) ([]Rect, error) {
	var lastErr error = ErrNoDisplays
	for _, p := range c {
		if p == nil {
			continue
		}
		rects, err := p.Displays(ctx)
		if err != nil {
			log.Debug("display provider failed: %v", err)
			lastErr = err
			continue
		}
		if len(rects) > 0 {
			return rects, nil
		}
	}
	return nil, lastErr
}

// System returns the platform display enumerator.
func System() Provider {
	return ProviderFunc(systemDisplays)
}
