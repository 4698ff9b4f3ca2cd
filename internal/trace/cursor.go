package trace

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/flowcheck/internal/driver"
)

// CursorSize is the size of the cursor sprite
const CursorSize = 20

// drawCursorOnFrame returns a copy of frame with the cursor for step drawn
// at its target.
func drawCursorOnFrame(frame image.Image, step Step) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if !step.HasPointer {
		return result
	}

	switch step.Kind {
	case driver.Fill:
		drawTextCursor(result, step.X, step.Y)
	default:
		drawClickRipple(result, step.X, step.Y, step.Err != nil)
		drawCursor(result, step.X, step.Y)
	}
	return result
}

// drawCursor draws a simple arrow cursor
func drawCursor(img *image.RGBA, x, y int) {
	outline := color.RGBA{0, 0, 0, 255}
	fill := color.RGBA{255, 255, 255, 255}

	points := []struct{ dx, dy int }{
		{0, 0},
		{0, 16},
		{4, 12},
		{7, 18},
		{10, 17},
		{7, 11},
		{12, 11},
	}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if isInsideCursor(dx, dy) {
				setPixelSafe(img, x+dx, y+dy, fill)
			}
		}
	}
	for i := range points {
		p1 := points[i]
		p2 := points[(i+1)%len(points)]
		drawLine(img, x+p1.dx, y+p1.dy, x+p2.dx, y+p2.dy, outline)
	}
}

// drawTextCursor draws an I-beam centred on (x, y).
func drawTextCursor(img *image.RGBA, x, y int) {
	c := color.RGBA{0, 0, 0, 255}
	half := CursorSize / 2
	drawLine(img, x, y-half, x, y+half, c)
	drawLine(img, x-3, y-half, x+3, y-half, c)
	drawLine(img, x-3, y+half, x+3, y+half, c)
}

func isInsideCursor(dx, dy int) bool {
	if dy < 0 || dy > 16 || dx < 0 {
		return false
	}
	if dy <= 11 {
		return dx <= dy*12/16
	}
	return dx <= 4
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
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

// drawClickRipple circles the click target, red when the action failed.
func drawClickRipple(img *image.RGBA, x, y int, failed bool) {
	ripple := color.RGBA{66, 133, 244, 100}
	if failed {
		ripple = color.RGBA{219, 68, 55, 200}
	}
	radius := 15

	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(float64(radius)*math.Cos(rad))
		py := y + int(float64(radius)*math.Sin(rad))
		setPixelSafe(img, px, py, ripple)
		setPixelSafe(img, px+1, py, ripple)
		setPixelSafe(img, px, py+1, ripple)
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
