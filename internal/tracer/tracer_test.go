// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calibratedAt(t *testing.T, yaw float64) *Tracer {
	t.Helper()
	tr := New(DefaultConfig())
	tr.Update(9999, yaw)
	tr.Calibrate()
	require.True(t, tr.Calibrated())
	return tr
}

func TestRelativeAngle_Uncalibrated(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update(50, 270)
	assert.Equal(t, 270.0, tr.RelativeAngle())
}

func TestRelativeAngle_Normalised(t *testing.T) {
	tr := calibratedAt(t, 350)

	cases := []struct {
		yaw  float64
		want float64
	}{
		{350, 0},
		{10, 20},
		{340, -10},
		{170, -180},
		{160, 170},
		{180, -170},
	}
	for _, c := range cases {
		tr.Update(9999, c.yaw)
		assert.InDelta(t, c.want, tr.RelativeAngle(), 1e-9, "yaw %v", c.yaw)
	}
}

func TestMovement_NeverBeforeCalibration(t *testing.T) {
	tr := New(DefaultConfig())
	for i := 0; i < 20; i++ {
		tr.Update(5, float64(i*10))
		assert.False(t, tr.Moving())
		assert.False(t, tr.Drawing())
	}
	assert.Equal(t, "NOT CALIBRATED", tr.Status())
	assert.Empty(t, tr.Segments())
}

func TestMovement_NeedsThreeEntries(t *testing.T) {
	tr := calibratedAt(t, 0)

	tr.Update(5, 20)
	assert.False(t, tr.Moving())
	tr.Update(5, 40)
	assert.False(t, tr.Moving())
	tr.Update(5, 60)
	assert.True(t, tr.Moving())
}

func TestMovement_StopsWhenYawSettles(t *testing.T) {
	tr := calibratedAt(t, 0)

	for _, yaw := range []float64{1, 2, 3, 4, 5} {
		tr.Update(5, yaw)
	}
	require.True(t, tr.Moving())

	// Five identical readings flush the spread out of the recent window.
	for i := 0; i < 5; i++ {
		tr.Update(5, 5)
	}
	assert.False(t, tr.Moving())
	assert.Equal(t, "OBJECT DETECTED - NOT MOVING", tr.Status())
}

func TestMovement_SmallJitterIsStill(t *testing.T) {
	tr := calibratedAt(t, 0)
	for _, yaw := range []float64{0.1, 0.2, 0.1, 0.3, 0.2, 0.1, 0.2} {
		tr.Update(5, yaw)
	}
	assert.False(t, tr.Moving())
}

func TestDraw_AdvancesAlongHeading(t *testing.T) {
	tr := calibratedAt(t, 0)
	start := tr.Pen()
	assert.Equal(t, Point{X: 400, Y: 300}, start)

	for _, yaw := range []float64{1, 2, 3} {
		tr.Update(5, yaw)
	}
	require.True(t, tr.Drawing())
	assert.Equal(t, "DRAWING", tr.Status())

	segs := tr.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, image.Pt(400, 300), segs[0].From)
	assert.Greater(t, tr.Pen().X, start.X)
	assert.InDelta(t, 2.0, tr.Pen().X-start.X, 0.01)
}

func TestDraw_OnlyWithinDrawDistance(t *testing.T) {
	tr := calibratedAt(t, 0)
	for _, yaw := range []float64{10, 20, 30, 40} {
		tr.Update(11, yaw)
	}
	assert.True(t, tr.Moving())
	assert.False(t, tr.Drawing())
	assert.Equal(t, "MOVING - NO OBJECT", tr.Status())
	assert.Empty(t, tr.Segments())

	tr.Update(0, 50)
	assert.False(t, tr.Drawing(), "zero distance is no reading")
	assert.Equal(t, "NOT DRAWING", tr.Status())

	tr.Update(10, 60)
	assert.True(t, tr.Drawing(), "draw distance is inclusive")
}

func TestDraw_PenClampedInsideCanvas(t *testing.T) {
	tr := New(Config{Width: 100, Height: 100, DrawDistance: 10, MovementThreshold: 0.5})
	tr.Update(9999, 0)
	tr.Calibrate()

	yaw := 0.0
	for i := 0; i < 200; i++ {
		yaw += 1 // keeps moving, heading roughly +x
		tr.Update(5, yaw)
	}
	p := tr.Pen()
	assert.LessOrEqual(t, p.X, 90.0)
	assert.GreaterOrEqual(t, p.X, 10.0)
	assert.LessOrEqual(t, p.Y, 90.0)
	assert.GreaterOrEqual(t, p.Y, 10.0)
}

func TestReset_KeepsCalibration(t *testing.T) {
	tr := calibratedAt(t, 0)
	for _, yaw := range []float64{1, 2, 3, 4} {
		tr.Update(5, yaw)
	}
	require.NotEmpty(t, tr.Segments())

	tr.Reset()
	assert.Empty(t, tr.Segments())
	assert.Equal(t, Point{X: 400, Y: 300}, tr.Pen())
	assert.True(t, tr.Calibrated())
}

func TestRender(t *testing.T) {
	tr := calibratedAt(t, 0)
	img := tr.Render()
	assert.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())

	// Idle pen sits on the centre in red.
	c := img.RGBAAt(400, 300)
	assert.Greater(t, c.R, uint8(200))
	assert.Less(t, c.G, uint8(50))
	// Far corner stays background.
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(790, 590))
}

func TestRender_Trace(t *testing.T) {
	tr := calibratedAt(t, 0)
	// Alternating yaw keeps the gyro "moving" while heading along +x.
	for i := 0; i < 50; i++ {
		tr.Update(5, float64(i%2))
	}
	require.True(t, tr.Drawing())
	require.Greater(t, tr.Pen().X, 490.0)

	img := tr.Render()

	// Past the heading indicator and short of the pen dot only the trace
	// is drawn.
	c := img.RGBAAt(480, 300)
	assert.Greater(t, c.G, uint8(100))
	assert.Less(t, c.R, uint8(50))

	tr.Reset()
	img = tr.Render()
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(480, 300))
}
