package snapshot

import (
	"image"
	"image/color"
	"math"
	"sort"
)

var (
	outlineColor = color.RGBA{234, 67, 53, 255}
	markerColor  = color.RGBA{66, 133, 244, 255}
)

const outlineWidth = 3

// highlight draws a thick outline around box and a ring at its center.
func highlight(img *image.RGBA, box image.Rectangle) {
	for i := 0; i < outlineWidth; i++ {
		r := box.Inset(-i)
		drawLine(img, r.Min.X, r.Min.Y, r.Max.X-1, r.Min.Y, outlineColor)
		drawLine(img, r.Max.X-1, r.Min.Y, r.Max.X-1, r.Max.Y-1, outlineColor)
		drawLine(img, r.Max.X-1, r.Max.Y-1, r.Min.X, r.Max.Y-1, outlineColor)
		drawLine(img, r.Min.X, r.Max.Y-1, r.Min.X, r.Min.Y, outlineColor)
	}
	c := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)
	radius := min(10, box.Dx()/2, box.Dy()/2)
	drawRing(img, c, radius)
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawRing(img *image.RGBA, center image.Point, radius int) {
	if radius <= 0 {
		return
	}
	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		x := center.X + int(float64(radius)*math.Cos(rad))
		y := center.Y + int(float64(radius)*math.Sin(rad))
		setPixelSafe(img, x, y, markerColor)
		setPixelSafe(img, x+1, y, markerColor)
	}
}

// palette picks the 255 most frequent colors of a sampled img plus a
// transparent entry, padded with grays.
func palette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)
	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			counts[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return rgbaLess(colors[i], colors[j])
	})

	p := make(color.Palette, 0, 256)
	p = append(p, color.RGBA{0, 0, 0, 0})
	for _, c := range colors {
		if len(p) == 256 {
			break
		}
		p = append(p, c)
	}
	for len(p) < 256 {
		gray := uint8(len(p))
		p = append(p, color.RGBA{gray, gray, gray, 255})
	}
	return p
}

func rgbaLess(a, b color.RGBA) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	if a.G != b.G {
		return a.G < b.G
	}
	if a.B != b.B {
		return a.B < b.B
	}
	return a.A < b.A
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
