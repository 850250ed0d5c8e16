// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import "fmt"

// Direction is the turn direction derived from the yaw rate.
type Direction uint8

const (
	Stationary Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Stationary:
		return "Stationary"
	case Left:
		return "Left"
	case Right:
		return "Right"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Stationary":
		*d = Stationary
	case "Left":
		*d = Left
	case "Right":
		*d = Right
	default:
		return fmt.Errorf("%w: direction %q", ErrBadValue, b)
	}
	return nil
}

// Motion tells whether the gyro sees rotation above the threshold.
type Motion uint8

const (
	Still Motion = iota
	Moving
)

func (m Motion) String() string {
	switch m {
	case Still:
		return "Still"
	case Moving:
		return "Moving"
	}
	return fmt.Sprintf("Motion(%d)", uint8(m))
}

func (m Motion) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Motion) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Still":
		*m = Still
	case "Moving":
		*m = Moving
	default:
		return fmt.Errorf("%w: motion %q", ErrBadValue, b)
	}
	return nil
}

// Object tells whether the rangefinder sees something inside the ceiling.
type Object uint8

const (
	None Object = iota
	Detected
)

func (o Object) String() string {
	switch o {
	case None:
		return "None"
	case Detected:
		return "Detected"
	}
	return fmt.Sprintf("Object(%d)", uint8(o))
}

func (o Object) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Object) UnmarshalText(b []byte) error {
	switch string(b) {
	case "None":
		*o = None
	case "Detected":
		*o = Detected
	default:
		return fmt.Errorf("%w: object %q", ErrBadValue, b)
	}
	return nil
}
