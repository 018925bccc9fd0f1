//go:build linux

package display

import "testing"

func TestParseXrandr(t *testing.T) {
	out := []byte(`Screen 0: minimum 320 x 200, current 4480 x 1440, maximum 16384 x 16384
eDP-1 connected primary 2560x1440+0+0 (normal left inverted right x axis y axis) 309mm x 174mm
   2560x1440     60.00*+
HDMI-1 connected 1920x1080+2560-200 (normal left inverted right x axis y axis) 527mm x 296mm
DP-1 disconnected (normal left inverted right x axis y axis)
DP-2 connected (normal left inverted right x axis y axis)
`)
	got := parseXrandr(out)
	want := []Rect{
		{X: 0, Y: 0, Width: 2560, Height: 1440},
		{X: 2560, Y: -200, Width: 1920, Height: 1080},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("display %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}
