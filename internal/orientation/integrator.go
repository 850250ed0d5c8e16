// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultCalibrationSamples is the number of stationary samples averaged
// into the bias.
const DefaultCalibrationSamples = 200

// GyroBus is the inertial bus collaborator. ReadAngularRateRaw returns the
// two's-complement yaw rate register as configured by the full-scale range.
type GyroBus interface {
	ReadAngularRateRaw() (int16, error)
}

// Clock returns monotonic milliseconds.
type Clock interface {
	NowMillis() int64
}

// MonotonicClock counts milliseconds since it was created.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

// scaleByRange holds LSB per deg/s for the four MPU-6050 gyro ranges.
var scaleByRange = [4]float64{131.0, 65.5, 32.8, 16.4}

// ScaleForRange returns the LSB per deg/s for a gyro full-scale code
// (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s).
func ScaleForRange(fullScale byte) (float64, error) {
	if int(fullScale) >= len(scaleByRange) {
		return 0, fmt.Errorf("gyro full-scale code %d out of range 0-3", fullScale)
	}
	return scaleByRange[fullScale], nil
}

// Calibration is the result of a stationary bias measurement.
type Calibration struct {
	Bias     CalibrationBias
	StdDev   float64 // deg/s; diagnostic only
	Samples  int
	Failures int // bus reads that failed and were counted as zero
}

// Calibrate averages n rate samples read back to back. The device must be
// still; motion is not detected and simply produces a wrong bias.
func Calibrate(gyro GyroBus, scale float64, n int) Calibration {
	if n <= 0 {
		n = DefaultCalibrationSamples
	}
	rates := make([]float64, n)
	failures := 0
	for i := range rates {
		raw, err := gyro.ReadAngularRateRaw()
		if err != nil {
			failures++
			continue
		}
		rates[i] = float64(raw) / scale
	}

	mean, std := stat.MeanStdDev(rates, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return Calibration{
		Bias:     CalibrationBias(mean),
		StdDev:   std,
		Samples:  n,
		Failures: failures,
	}
}

// Integrator reads the gyro once per Update and advances the State it was
// given. It never signals errors: a failed read counts as a zero reading.
type Integrator struct {
	gyro  GyroBus
	clock Clock
	scale float64
	state *State

	readFailures uint64
}

func NewIntegrator(gyro GyroBus, clock Clock, scale float64, state *State) *Integrator {
	return &Integrator{gyro: gyro, clock: clock, scale: scale, state: state}
}

// Update performs one integration step and returns the corrected rate.
func (g *Integrator) Update() float64 {
	now := g.clock.NowMillis()

	var raw int16
	r, err := g.gyro.ReadAngularRateRaw()
	if err != nil {
		g.readFailures++
		if g.readFailures == 1 || g.readFailures%1000 == 0 {
			log.Printf("orientation: gyro read error (%d so far): %v", g.readFailures, err)
		}
	} else {
		raw = r
	}

	return Integrate(g.state, float64(raw)/g.scale, now)
}

// Heading returns the current heading in degrees.
func (g *Integrator) Heading() float64 { return g.state.HeadingDeg }

// Rate returns the corrected rate of the last Update.
func (g *Integrator) Rate() float64 { return g.state.Rate }

// ReadFailures returns how many gyro reads have failed.
func (g *Integrator) ReadFailures() uint64 { return g.readFailures }
