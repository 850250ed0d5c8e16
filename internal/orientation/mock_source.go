// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockGyro struct {
	start time.Time
	scale float64
	bias  float64
}

// NewMockGyro creates a gyro bus that sweeps the yaw rate back and forth
// (±40°/s) on top of a constant bias, in raw counts for the given scale.
func NewMockGyro(scale, biasDegPerSec float64) GyroBus {
	return &mockGyro{start: time.Now(), scale: scale, bias: biasDegPerSec}
}

func (m *mockGyro) ReadAngularRateRaw() (int16, error) {
	elapsed := time.Since(m.start).Seconds()

	// Hold still for the first few seconds so calibration sees only bias.
	rate := m.bias
	if elapsed > 3 {
		rate += 40 * math.Sin((elapsed-3)*0.5)
	}
	return int16(math.Round(rate * m.scale)), nil
}
