// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracer turns the stream of status lines into a pen drawing: while
// an object is within reach and the yaw is changing, a pen advances along
// the current heading relative to a calibrated reference.
package tracer

import (
	"image"
	"math"
)

const (
	historyLength = 10
	recentWindow  = 5
	minHistory    = 3

	penSpeed  = 2.0 // px per update
	penMargin = 10.0
)

// Config controls canvas size and the drawing conditions.
type Config struct {
	Width             int
	Height            int
	DrawDistance      int     // cm, inclusive
	MovementThreshold float64 // degrees
}

// DefaultConfig matches the desktop plotter this replaces.
func DefaultConfig() Config {
	return Config{Width: 800, Height: 600, DrawDistance: 10, MovementThreshold: 0.5}
}

// Point is a pen position in canvas pixels.
type Point struct {
	X, Y float64
}

// Segment is one stroke, in truncated pixel coordinates.
type Segment struct {
	From, To image.Point
}

// Tracer holds the pen, the calibration offset and the recent yaw history.
// It is not safe for concurrent use.
type Tracer struct {
	cfg Config

	distance int
	yaw      float64

	offset     float64
	calibrated bool

	history  []float64
	previous float64
	moving   bool
	drawing  bool

	pen      Point
	segments []Segment
	updates  uint64
}

func New(cfg Config) *Tracer {
	t := &Tracer{
		cfg:      cfg,
		distance: 9999,
		history:  make([]float64, 0, historyLength+1),
	}
	t.pen = t.center()
	return t
}

func (t *Tracer) center() Point {
	return Point{X: float64(t.cfg.Width / 2), Y: float64(t.cfg.Height / 2)}
}

// Calibrate makes the current yaw the zero direction.
func (t *Tracer) Calibrate() {
	t.offset = t.yaw
	t.calibrated = true
}

func (t *Tracer) Calibrated() bool { return t.calibrated }

// RelativeAngle is the yaw relative to the calibration point, in
// [-180, 180]. Before calibration it is the raw yaw.
func (t *Tracer) RelativeAngle() float64 {
	if !t.calibrated {
		return t.yaw
	}
	a := t.yaw - t.offset
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// Update feeds one reading and advances the pen if drawing. It reports
// whether this update drew.
func (t *Tracer) Update(distance int, yaw float64) bool {
	t.distance = distance
	t.yaw = yaw
	t.updates++

	t.detectMovement()
	t.drawing = t.inReach() && t.moving

	if t.calibrated && t.drawing {
		rad := t.RelativeAngle() * math.Pi / 180
		last := t.pen
		next := Point{
			X: clamp(t.pen.X+math.Cos(rad)*penSpeed, penMargin, float64(t.cfg.Width)-penMargin),
			Y: clamp(t.pen.Y+math.Sin(rad)*penSpeed, penMargin, float64(t.cfg.Height)-penMargin),
		}
		t.pen = next
		t.segments = append(t.segments, Segment{
			From: image.Pt(int(last.X), int(last.Y)),
			To:   image.Pt(int(next.X), int(next.Y)),
		})
	}
	return t.drawing
}

// detectMovement keeps the last ten relative angles. The gyro counts as
// moving when the spread of the last five, or the change since the last
// evaluated reading, exceeds the threshold.
func (t *Tracer) detectMovement() {
	if !t.calibrated {
		t.moving = false
		return
	}

	cur := t.RelativeAngle()
	t.history = append(t.history, cur)
	if len(t.history) > historyLength {
		t.history = t.history[1:]
	}

	if len(t.history) < minHistory {
		t.moving = false
		return
	}

	recentRange := 0.0
	if len(t.history) >= recentWindow {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range t.history[len(t.history)-recentWindow:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		recentRange = hi - lo
	}
	immediate := math.Abs(cur - t.previous)

	t.moving = recentRange > t.cfg.MovementThreshold || immediate > t.cfg.MovementThreshold
	t.previous = cur
}

func (t *Tracer) inReach() bool {
	return t.distance > 0 && t.distance <= t.cfg.DrawDistance
}

// Reset clears the drawing and recentres the pen. Calibration is kept.
func (t *Tracer) Reset() {
	t.segments = nil
	t.pen = t.center()
}

// Status describes what the pen is doing.
func (t *Tracer) Status() string {
	switch {
	case !t.calibrated:
		return "NOT CALIBRATED"
	case t.drawing:
		return "DRAWING"
	case t.inReach() && !t.moving:
		return "OBJECT DETECTED - NOT MOVING"
	case t.distance > t.cfg.DrawDistance && t.moving:
		return "MOVING - NO OBJECT"
	default:
		return "NOT DRAWING"
	}
}

func (t *Tracer) Moving() bool        { return t.moving }
func (t *Tracer) Drawing() bool       { return t.drawing }
func (t *Tracer) Pen() Point          { return t.pen }
func (t *Tracer) Distance() int       { return t.distance }
func (t *Tracer) Yaw() float64        { return t.yaw }
func (t *Tracer) Updates() uint64     { return t.updates }
func (t *Tracer) Segments() []Segment { return append([]Segment(nil), t.segments...) }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
