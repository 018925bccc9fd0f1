//go:build linux

package display

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
)

// "HDMI-1 connected primary 1920x1080+0+0 (normal ...) 527mm x 296mm"
var xrandrGeometry = regexp.MustCompile(`\sconnected\s(?:primary\s)?(\d+)x(\d+)([+-]\d+)([+-]\d+)`)

func systemDisplays(ctx context.Context) ([]Rect, error) {
	output, err := exec.CommandContext(ctx, "xrandr", "--query").Output()
	if err != nil {
		return nil, err
	}
	return parseXrandr(output), nil
}

func parseXrandr(output []byte) []Rect {
	var rects []Rect
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		m := xrandrGeometry.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		x, _ := strconv.Atoi(m[3])
		y, _ := strconv.Atoi(m[4])
		rects = append(rects, Rect{X: x, Y: y, Width: w, Height: h})
	}
	return rects
}
