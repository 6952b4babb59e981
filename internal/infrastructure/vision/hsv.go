package vision

import "math"

// Преобразования повторяют 8-битную семантику OpenCV: H в [0,180], S и V в [0,255].

func rgbToHSV(r, g, b uint8) (h, s, v uint8) {
	ri, gi, bi := int(r), int(g), int(b)
	maxV := maxInt(ri, maxInt(gi, bi))
	minV := minInt(ri, minInt(gi, bi))
	diff := maxV - minV

	if maxV > 0 {
		s = uint8(math.Round(float64(diff) * 255 / float64(maxV)))
	}
	if diff == 0 {
		return 0, s, uint8(maxV)
	}

	var hh int
	switch maxV {
	case ri:
		hh = gi - bi
	case gi:
		hh = bi - ri + 2*diff
	default:
		hh = ri - gi + 4*diff
	}
	hf := math.Round(float64(hh) * 30 / float64(diff))
	if hf < 0 {
		hf += 180
	}
	return uint8(hf), s, uint8(maxV)
}

var hsvSectors = [6][3]int{{1, 3, 0}, {1, 0, 2}, {3, 0, 1}, {0, 2, 1}, {0, 1, 3}, {2, 1, 0}}

func hsvToRGB(h, s, v uint8) (r, g, b uint8) {
	vf := float64(v) / 255
	sf := float64(s) / 255
	if sf == 0 {
		return v, v, v
	}

	hf := float64(h) * 6 / 180
	for hf >= 6 {
		hf -= 6
	}
	sector := int(math.Floor(hf))
	hf -= float64(sector)

	tab := [4]float64{vf, vf * (1 - sf), vf * (1 - sf*hf), vf * (1 - sf*(1-hf))}
	idx := hsvSectors[sector]
	return to8(tab[idx[2]]), to8(tab[idx[1]]), to8(tab[idx[0]])
}

func to8(f float64) uint8 {
	return uint8(clip(math.Round(f*255), 0, 255))
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
