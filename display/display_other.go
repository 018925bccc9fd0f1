//go:build !linux && !darwin && !windows

package display

import "context"

func systemDisplays(ctx context.Context) ([]Rect, error) {
	return nil, ErrNoDisplays
}
