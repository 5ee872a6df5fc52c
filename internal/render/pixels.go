package render

import "image/color"

func rgba8(c color.Color) [4]byte {
	r, g, b, a := c.RGBA()
	return [4]byte{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

// fillBinaryRGBA paints cells equal to want with on and every other cell with
// off.
func fillBinaryRGBA(buf []byte, cells []uint8, want uint8, on, off color.Color) {
	onPx, offPx := rgba8(on), rgba8(off)
	for i, c := range cells {
		px := offPx
		if c == want {
			px = onPx
		}
		copy(buf[i*4:i*4+4], px[:])
	}
}

// fillPaletteRGBA converts palette indices into RGBA pixels. When the palette
// is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// overlayRGBA blends col over the pixels whose cell equals want. An opaque col
// replaces the pixel.
func overlayRGBA(buf []byte, cells []uint8, want uint8, col color.Color) {
	r, g, b, a := col.RGBA()
	if a == 0 {
		return
	}
	inv := 0xffff - a
	for i, c := range cells {
		if c != want {
			continue
		}
		base := i * 4
		buf[base+0] = uint8((r + uint32(buf[base+0])*0x101*inv/0xffff) >> 8)
		buf[base+1] = uint8((g + uint32(buf[base+1])*0x101*inv/0xffff) >> 8)
		buf[base+2] = uint8((b + uint32(buf[base+2])*0x101*inv/0xffff) >> 8)
		buf[base+3] = 0xff
	}
}
