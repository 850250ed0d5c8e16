// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation integrates a single-axis (yaw) gyroscope into an
// absolute heading in [0, 360).
package orientation

// CalibrationBias is the mean angular rate, in deg/s, measured while the
// device was stationary. It is subtracted from every later reading.
type CalibrationBias float64

// State is the integrator's mutable state. It is created once at startup
// and threaded through every Integrate call by its owner.
type State struct {
	Bias CalibrationBias

	HeadingDeg       float64 // [0, 360)
	LastSampleMillis int64   // monotonic clock of the previous update

	// Rate is the bias-corrected rate of the most recent update, deg/s.
	Rate float64
}

// NewState seeds a State. nowMillis should be the clock reading taken when
// calibration finished so the first update integrates a real interval.
func NewState(bias CalibrationBias, nowMillis int64) State {
	return State{Bias: bias, LastSampleMillis: nowMillis}
}

// Integrate advances st by one sample. rawRate is the scaled but
// uncorrected gyro rate in deg/s. It returns the corrected rate.
//
// The wrap is a single correction, not a modulo: one update must not move
// the heading by more than 360°.
func Integrate(st *State, rawRate float64, nowMillis int64) float64 {
	elapsed := float64(nowMillis-st.LastSampleMillis) / 1000.0
	st.LastSampleMillis = nowMillis

	rate := rawRate - float64(st.Bias)
	st.Rate = rate

	st.HeadingDeg += rate * elapsed
	if st.HeadingDeg < 0 {
		st.HeadingDeg += 360
	}
	if st.HeadingDeg >= 360 {
		st.HeadingDeg -= 360
	}
	return rate
}
