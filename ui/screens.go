package ui

import (
	"context"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/drivedesk/DriveDesk/display"
)

// screenProvider lists displays through the framework. wails reports no
// positions, so screens are laid out left to right with the primary first.
type screenProvider struct {
	ctx func() context.Context
}

func (p screenProvider) Displays(context.Context) ([]display.Rect, error) {
	ctx := p.ctx()
	if ctx == nil {
		return nil, display.ErrNoDisplays
	}
	screens, err := wailsRuntime.ScreenGetAll(ctx)
	if err != nil {
		return nil, err
	}
	return layoutScreens(screens), nil
}

func layoutScreens(screens []wailsRuntime.Screen) []display.Rect {
	ordered := make([]wailsRuntime.Screen, 0, len(screens))
	for _, s := range screens {
		if s.IsPrimary {
			ordered = append(ordered, s)
		}
	}
	for _, s := range screens {
		if !s.IsPrimary {
			ordered = append(ordered, s)
		}
	}
	rects := make([]display.Rect, 0, len(ordered))
	x := 0
	for _, s := range ordered {
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		rects = append(rects, display.Rect{X: x, Y: 0, Width: s.Width, Height: s.Height})
		x += s.Width
	}
	return rects
}
