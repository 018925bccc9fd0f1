//go:build darwin

package display

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
)

var resolutionLine = regexp.MustCompile(`Resolution:\s*(\d+)\s*x\s*(\d+)`)

// system_profiler does not report display origins. Screens are laid out
// left to right from the main display, the arrangement macOS uses by default.
func systemDisplays(ctx context.Context) ([]Rect, error) {
	output, err := exec.CommandContext(ctx, "system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return nil, err
	}
	var rects []Rect
	x := 0
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		m := resolutionLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		rects = append(rects, Rect{X: x, Y: 0, Width: w, Height: h})
		x += w
	}
	return rects, nil
}
