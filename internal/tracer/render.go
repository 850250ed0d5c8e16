// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

var (
	colBackground = color.RGBA{0, 0, 0, 255}
	colTrace      = color.RGBA{0, 255, 0, 255}
	colText       = color.RGBA{255, 255, 255, 255}
	colIdle       = color.RGBA{100, 100, 100, 255}
	colReference  = color.RGBA{0, 0, 255, 255}
	colWaiting    = color.RGBA{255, 255, 0, 255}
	colStopped    = color.RGBA{255, 0, 0, 255}
)

const (
	traceWidth      = 3
	indicatorLength = 60
	referenceLength = 50
)

// Render draws the trace, the heading indicator and the status text.
func (t *Tracer) Render() *image.RGBA {
	w, h := t.cfg.Width, t.cfg.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colBackground), image.Point{}, draw.Src)

	for _, s := range t.segments {
		strokeLine(img, pt(s.From), pt(s.To), traceWidth, colTrace)
	}

	c := t.center()
	if t.calibrated {
		rad := t.RelativeAngle() * math.Pi / 180
		tip := Point{X: c.X + math.Cos(rad)*indicatorLength, Y: c.Y + math.Sin(rad)*indicatorLength}
		ind := colIdle
		if t.drawing {
			ind = colText
		}
		strokeLine(img, c, tip, 2, ind)
		fillCircle(img, c, 3, colText)
		strokeLine(img, c, Point{X: c.X + referenceLength, Y: c.Y}, 1, colReference)
	}

	switch {
	case t.drawing:
		fillCircle(img, t.pen, 6, colTrace)
	case t.inReach() && !t.moving:
		fillCircle(img, t.pen, 5, colWaiting)
	default:
		fillCircle(img, t.pen, 4, colStopped)
	}

	lines := []string{
		fmt.Sprintf("Distance: %d cm", t.distance),
		fmt.Sprintf("Raw Yaw: %.1f", t.yaw),
	}
	if t.calibrated {
		gyro := "STATIONARY"
		if t.moving {
			gyro = "MOVING"
		}
		lines = append(lines,
			fmt.Sprintf("Direction: %.1f", t.RelativeAngle()),
			"Status: "+t.Status(),
			"Gyro: "+gyro,
		)
	} else {
		lines = append(lines, "Status: "+t.Status())
	}
	lines = append(lines, fmt.Sprintf("Pen: (%d, %d)", int(t.pen.X), int(t.pen.Y)))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colText),
		Face: basicfont.Face7x13,
	}
	for i, l := range lines {
		d.Dot = fixed.P(10, 20+i*18)
		d.DrawString(l)
	}

	return img
}

func pt(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// strokeLine fills the rectangle of the given width around a to b.
func strokeLine(dst draw.Image, a, b Point, width float64, c color.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		fillCircle(dst, a, width/2, c)
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2

	r := dst.Bounds()
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	z.LineTo(float32(b.X+nx), float32(b.Y+ny))
	z.LineTo(float32(b.X-nx), float32(b.Y-ny))
	z.LineTo(float32(a.X-nx), float32(a.Y-ny))
	z.ClosePath()
	z.Draw(dst, r, image.NewUniform(c), image.Point{})
}

func fillCircle(dst draw.Image, p Point, radius float64, c color.Color) {
	const steps = 24
	r := dst.Bounds()
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.MoveTo(float32(p.X+radius), float32(p.Y))
	for i := 1; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		z.LineTo(float32(p.X+math.Cos(a)*radius), float32(p.Y+math.Sin(a)*radius))
	}
	z.ClosePath()
	z.Draw(dst, r, image.NewUniform(c), image.Point{})
}
