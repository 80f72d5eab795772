package visualization

import "image/color"

// Line colours used for the fitted curves.
var (
	FitRed          = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	HealthyBlue     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	InflamedMagenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	barFill         = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	violinFill      = color.NRGBA{R: 31, G: 119, B: 180, A: 77}
)

// tab10 is the default categorical palette for up to ten series.
var tab10 = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
	color.RGBA{R: 227, G: 119, B: 194, A: 255},
	color.RGBA{R: 127, G: 127, B: 127, A: 255},
	color.RGBA{R: 188, G: 189, B: 34, A: 255},
	color.RGBA{R: 23, G: 190, B: 207, A: 255},
}

// Palette returns n distinct colours. Up to ten series get the tab10
// colours; larger batches are spread evenly around the hue wheel.
func Palette(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	if n <= len(tab10) {
		return append([]color.Color(nil), tab10[:n]...)
	}
	return generateColors(n)
}

func generateColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
