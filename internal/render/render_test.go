package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"lightning/internal/core"
	"lightning/internal/growth"
	"lightning/internal/sim"
)

func testFrame(w, h int) sim.Frame {
	dims := core.Dims{W: w, H: h}
	fr := sim.Frame{Dims: dims, Potential: make([]float64, w*h), States: make([]uint8, w*h)}
	for i := range fr.Potential {
		fr.Potential[i] = float64(dims.Coord(i).Y) / float64(h-1)
	}
	fr.States[0] = uint8(growth.Conductive)
	fr.States[1] = uint8(growth.Candidate)
	return fr
}

func TestPotentialPaletteEndpoints(t *testing.T) {
	palette, err := PotentialPalette(PaletteSize)
	if err != nil {
		t.Fatal(err)
	}
	if len(palette) != PaletteSize {
		t.Fatalf("palette has %d entries", len(palette))
	}
	low, high := palette[0], palette[PaletteSize-1]
	if low.R > 10 || low.G < 240 || low.B < 240 {
		t.Fatalf("potential 0 should be cyan, got %v", low)
	}
	if high.R < 240 || high.G > 10 || high.B > 10 {
		t.Fatalf("potential 1 should be red, got %v", high)
	}
	for i, c := range palette {
		if c.A != 0xff {
			t.Fatalf("entry %d is not opaque: %v", i, c)
		}
	}
	if _, err := PotentialPalette(1); err == nil {
		t.Fatal("expected an error for a single-entry palette")
	}
}

func TestQuantizeClamps(t *testing.T) {
	dst := make([]uint8, 5)
	Quantize(dst, []float64{-1, 0, 0.5, 1, 7}, 256)
	want := []uint8{0, 0, 128, 255, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("level %d = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestPaintOverlaysChannel(t *testing.T) {
	style, err := DefaultStyle()
	if err != nil {
		t.Fatal(err)
	}
	fr := testFrame(4, 3)
	p := NewPainter(4, 3, style)
	buf, err := p.Paint(fr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[0:4], []byte{0xff, 0xff, 0xff, 0xff}) {
		t.Fatalf("channel pixel = %v, want white", buf[0:4])
	}
	plain := style.Palette[0]
	if buf[8] != plain.R || buf[9] != plain.G || buf[10] != plain.B {
		t.Fatalf("empty pixel = %v, want palette %v", buf[8:12], plain)
	}
	if bytes.Equal(buf[4:8], buf[8:12]) {
		t.Fatal("candidate pixel should be tinted")
	}

	fr.Landed = true
	buf, err = p.Paint(fr)
	if err != nil {
		t.Fatal(err)
	}
	landed := rgba8(style.Landed)
	if !bytes.Equal(buf[0:4], landed[:]) {
		t.Fatalf("landed channel pixel = %v, want %v", buf[0:4], landed)
	}
}

func TestPaintWithoutPaletteIsBinary(t *testing.T) {
	p := NewPainter(4, 3, Style{Off: color.Black, Channel: color.White})
	buf, err := p.Paint(testFrame(4, 3))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 12; i++ {
		want := byte(0)
		if i == 0 {
			want = 0xff
		}
		if buf[i*4] != want || buf[i*4+3] != 0xff {
			t.Fatalf("pixel %d = %v", i, buf[i*4:i*4+4])
		}
	}
}

func TestPaintRejectsMismatchedFrame(t *testing.T) {
	p := NewPainter(5, 5, Style{})
	if _, err := p.Paint(testFrame(4, 3)); err == nil {
		t.Fatal("expected a size mismatch error")
	}
}

func TestLayerPicksMiddleSlice(t *testing.T) {
	dims := core.Dims{W: 3, H: 3, D: 5}
	fr := sim.Frame{Dims: dims, Potential: make([]float64, dims.Cells()), States: make([]uint8, dims.Cells())}
	mid := dims.Index(core.Coord{X: 1, Y: 1, Z: 2})
	fr.States[mid] = uint8(growth.Conductive)
	_, states := Layer(fr)
	if len(states) != 9 || states[4] != uint8(growth.Conductive) {
		t.Fatalf("middle layer = %v", states)
	}
}

func TestWritePNGScales(t *testing.T) {
	style, err := DefaultStyle()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, testFrame(4, 3), style, 3); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 9 {
		t.Fatalf("image bounds %v", b)
	}
	if r, g, b, _ := img.At(2, 2).RGBA(); r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Fatal("scaled channel pixel is not white")
	}
}
