// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rangefinder

import (
	"math"
	"time"
)

// maxBacklog caps how many overdue frames a slow reader gets at once.
const maxBacklog = 10

// MockSource emits synthetic frames at a fixed rate, with the distance
// sweeping in and out of a 0-120 cm window. Every 50th frame is preceded
// by a stray byte so resynchronisation gets exercised.
type MockSource struct {
	start   time.Time
	period  time.Duration
	emitted int
	pending []byte
}

// NewMockSource creates a mock rangefinder sending frames every period
// (the TF-Mini default is 100 Hz).
func NewMockSource(period time.Duration) *MockSource {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return &MockSource{start: time.Now(), period: period}
}

func (m *MockSource) refill() {
	due := int(time.Since(m.start) / m.period)
	if due-m.emitted > maxBacklog {
		m.emitted = due - maxBacklog
	}
	for ; m.emitted < due; m.emitted++ {
		if m.emitted%50 == 49 {
			m.pending = append(m.pending, 0x00)
		}
		d := 60 + 60*math.Sin(float64(m.emitted)*0.02)
		f := EncodeFrame(uint16(math.Max(d, 0)), 1200)
		m.pending = append(m.pending, f[:]...)
	}
}

func (m *MockSource) Available() int {
	m.refill()
	return len(m.pending)
}

func (m *MockSource) ReadByte() (byte, error) {
	if len(m.pending) == 0 {
		m.refill()
		if len(m.pending) == 0 {
			return 0, ErrNoData
		}
	}
	b := m.pending[0]
	m.pending = m.pending[1:]
	return b, nil
}
