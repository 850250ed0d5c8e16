// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fusion combines the latest heading and a decoded distance into
// one status record per rangefinder packet.
package fusion

import "math"

// DefaultThreshold is the yaw rate, in deg/s, above which the device is
// considered turning.
const DefaultThreshold = 1.5

// Record is one emitted snapshot. It is rebuilt for every packet.
type Record struct {
	Distance  uint16    `json:"distance"`
	Yaw       float64   `json:"yaw"`
	Direction Direction `json:"direction"`
	Object    Object    `json:"object"`
	Motion    Motion    `json:"gyro"`
}

// Thresholds are the classification constants of a deployment.
type Thresholds struct {
	Rate    float64 // deg/s
	Ceiling uint16  // distance clamp, cm
}

// ClassifyDirection maps a corrected yaw rate to a turn direction.
func ClassifyDirection(rate, threshold float64) Direction {
	switch {
	case rate > threshold:
		return Right
	case rate < -threshold:
		return Left
	}
	return Stationary
}

func ClassifyMotion(rate, threshold float64) Motion {
	if math.Abs(rate) > threshold {
		return Moving
	}
	return Still
}

// ClassifyObject reports Detected only for distances below the ceiling.
func ClassifyObject(distance, ceiling uint16) Object {
	if distance < ceiling {
		return Detected
	}
	return None
}

// Classify builds a Record. distance must already be clamped.
func Classify(heading, rate float64, distance uint16, th Thresholds) Record {
	return Record{
		Distance:  distance,
		Yaw:       heading,
		Direction: ClassifyDirection(rate, th.Rate),
		Object:    ClassifyObject(distance, th.Ceiling),
		Motion:    ClassifyMotion(rate, th.Rate),
	}
}
