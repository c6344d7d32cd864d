package roi

import (
	"testing"
)

var testFrame = FrameShape{Height: 1080, Width: 1920}

func TestMakeSquareMultipleProperties(t *testing.T) {

	const (
		imgsz   = 320
		minMult = 1
		maxMult = 4
	)

	cases := []struct {
		name string
		box  Box
	}{
		{"vertical", Box{0, 0, 100, 200}},
		{"horizontal", Box{0, 0, 200, 100}},
		{"almost square", Box{10, 20, 110, 115}},
		{"vertical offset", Box{50, 50, 150, 250}},
		{"wide", Box{10, 10, 450, 300}},
		{"near origin", Box{10, 20, 100, 80}},
		{"near bottom right corner", Box{1700, 900, 1900, 1050}},
	}

	for _, tc := range cases {
		got := tc.box.MakeSquareMultiple(imgsz, minMult, maxMult, testFrame)

		if !got.IsSquare() {
			t.Errorf("%s: result %dx%d not square", tc.name, got.Width(), got.Height())
		}

		if got.Width()%imgsz != 0 {
			t.Errorf("%s: width %d not a multiple of %d", tc.name, got.Width(), imgsz)
		}

		mult := got.Width() / imgsz
		if mult < minMult || mult > maxMult {
			t.Errorf("%s: multiple %d outside [%d,%d]", tc.name, mult, minMult, maxMult)
		}

		if got.X1 < 0 || got.Y1 < 0 || got.X2 > testFrame.Width || got.Y2 > testFrame.Height {
			t.Errorf("%s: result %+v outside frame bounds", tc.name, got)
		}
	}
}

func TestMakeSquareMultipleNearOrigin(t *testing.T) {

	// a small box near the frame origin must still come out as a full
	// imgsz square, shifted inside the frame
	got := Box{10, 20, 100, 80}.MakeSquareMultiple(320, 1, 4, testFrame)

	want := Box{0, 0, 320, 320}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMakeSquareMultipleClampsMultiple(t *testing.T) {

	// 1920px side rounds to multiple 6, clamped to 4
	got := Box{0, 0, 1920, 1080}.MakeSquareMultiple(320, 1, 4, testFrame)

	if got.Width() != 4*320 {
		t.Errorf("width %d, want %d", got.Width(), 4*320)
	}

	// a 1280px square cannot fit a 1080px tall frame, bounds still hold
	if got.X1 < 0 || got.Y1 < 0 || got.X2 > testFrame.Width || got.Y2 > testFrame.Height {
		t.Errorf("result %+v outside frame bounds", got)
	}
}

func TestExpandPreservesSquare(t *testing.T) {

	box := Box{100, 100, 400, 400}

	for _, margin := range []float64{0, 0.1, 0.2, 0.3, 0.5} {
		got := box.Expand(margin, testFrame, true)

		if !got.IsSquare() {
			t.Errorf("margin %.1f: result %dx%d not square", margin, got.Width(), got.Height())
		}

		if got.X1 < 0 || got.Y1 < 0 || got.X2 > testFrame.Width || got.Y2 > testFrame.Height {
			t.Errorf("margin %.1f: result %+v outside frame bounds", margin, got)
		}
	}
}

func TestExpandClipsToFrame(t *testing.T) {

	cases := []struct {
		name string
		box  Box
	}{
		{"top left", Box{10, 10, 100, 100}},
		{"bottom right", Box{1800, 980, 1900, 1060}},
	}

	for _, tc := range cases {
		got := tc.box.Expand(0.5, testFrame, false)

		if got.X1 < 0 || got.Y1 < 0 || got.X2 > testFrame.Width || got.Y2 > testFrame.Height {
			t.Errorf("%s: result %+v outside frame bounds", tc.name, got)
		}
	}
}

func TestExpandGrowsByMargin(t *testing.T) {

	// 10% of 1920 = 192px, 10% of 1080 = 108px, box away from edges
	got := Box{500, 400, 700, 600}.Expand(0.1, testFrame, false)

	want := Box{500 - 192, 400 - 108, 700 + 192, 600 + 108}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSmoothWithEndpoints(t *testing.T) {

	a := Box{100, 100, 200, 200}
	b := Box{110, 110, 210, 210}

	if got := a.SmoothWith(b, 0); got != a {
		t.Errorf("alpha 0: got %+v, want %+v", got, a)
	}

	if got := a.SmoothWith(b, 1); got != b {
		t.Errorf("alpha 1: got %+v, want %+v", got, b)
	}
}

func TestSmoothWithPreservesSquare(t *testing.T) {

	a := Box{100, 100, 200, 200}
	b := Box{110, 110, 210, 210}

	for _, alpha := range []float64{0, 0.3, 0.5, 0.7, 1} {
		got := a.SmoothWith(b, alpha)

		if !got.IsSquare() {
			t.Errorf("alpha %.1f: result %dx%d not square", alpha, got.Width(), got.Height())
		}
	}
}

func TestSmoothWithRestoresSquareAfterRounding(t *testing.T) {

	// different side lengths make the integer truncation land unevenly on
	// the two axes, forcing the re-center path
	a := Box{0, 0, 100, 100}
	b := Box{1, 2, 103, 104}

	got := a.SmoothWith(b, 0.3)

	if !got.IsSquare() {
		t.Fatalf("result %dx%d not square", got.Width(), got.Height())
	}

	if got.Width() != 101 {
		t.Errorf("side %d, want 101 (the larger truncated side)", got.Width())
	}
}

func TestBoxProperties(t *testing.T) {

	box := Box{10, 20, 110, 80}

	if box.Width() != 100 || box.Height() != 60 {
		t.Errorf("got %dx%d, want 100x60", box.Width(), box.Height())
	}

	if box.Area() != 6000 {
		t.Errorf("area %d, want 6000", box.Area())
	}

	if box.IsSquare() {
		t.Error("rectangular box reported square")
	}

	square := Box{0, 0, 640, 640}

	if !square.IsSquare() {
		t.Error("square box not reported square")
	}

	if got := square.SizeMultiple(320); got != 2.0 {
		t.Errorf("size multiple %f, want 2.0", got)
	}

	ratio := square.CropRatio(testFrame)
	want := float64(640*640) / float64(1920*1080)

	if ratio != want {
		t.Errorf("crop ratio %f, want %f", ratio, want)
	}
}
