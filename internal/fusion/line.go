// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadValue is returned for a field whose value does not parse.
	ErrBadValue = errors.New("bad field value")
	// ErrUnknownField is returned by ParseFields for a name it does not know.
	ErrUnknownField = errors.New("unknown field")
	// ErrIncomplete is returned by ParseLine when distance or yaw is missing.
	ErrIncomplete = errors.New("incomplete status line")
)

// Field is one key of the status line.
type Field string

const (
	FieldDistance  Field = "distance"
	FieldYaw       Field = "yaw"
	FieldDirection Field = "direction"
	FieldObject    Field = "object"
	FieldGyro      Field = "gyro"
)

// DefaultFields is the field order of the reference deployment.
var DefaultFields = []Field{FieldDistance, FieldYaw, FieldDirection, FieldObject, FieldGyro}

// ParseFields validates configured field names.
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		f := Field(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case FieldDistance, FieldYaw, FieldDirection, FieldObject, FieldGyro:
			fields = append(fields, f)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, n)
		}
	}
	return fields, nil
}

func (r Record) value(f Field) string {
	switch f {
	case FieldDistance:
		return strconv.Itoa(int(r.Distance))
	case FieldYaw:
		return strconv.FormatFloat(r.Yaw, 'f', 2, 64)
	case FieldDirection:
		return r.Direction.String()
	case FieldObject:
		return r.Object.String()
	case FieldGyro:
		return r.Motion.String()
	}
	return ""
}

// FormatLine renders r as comma separated key=value pairs in the given
// field order, without a line terminator. A nil fields uses DefaultFields.
func FormatLine(r Record, fields []Field) string {
	if fields == nil {
		fields = DefaultFields
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(f))
		b.WriteByte('=')
		b.WriteString(r.value(f))
	}
	return b.String()
}

// ParseLine is the host-side inverse of FormatLine. Unknown keys are
// ignored; distance and yaw are required, other fields keep their zero
// value when absent.
func ParseLine(line string) (Record, error) {
	var (
		r                 Record
		haveDist, haveYaw bool
	)
	for _, part := range strings.Split(strings.TrimSpace(line), ",") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch Field(key) {
		case FieldDistance:
			d, err := strconv.ParseUint(val, 10, 16)
			if err != nil {
				return Record{}, fmt.Errorf("%w: distance %q", ErrBadValue, val)
			}
			r.Distance = uint16(d)
			haveDist = true
		case FieldYaw:
			y, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Record{}, fmt.Errorf("%w: yaw %q", ErrBadValue, val)
			}
			r.Yaw = y
			haveYaw = true
		case FieldDirection:
			if err := r.Direction.UnmarshalText([]byte(val)); err != nil {
				return Record{}, err
			}
		case FieldObject:
			if err := r.Object.UnmarshalText([]byte(val)); err != nil {
				return Record{}, err
			}
		case FieldGyro:
			if err := r.Motion.UnmarshalText([]byte(val)); err != nil {
				return Record{}, err
			}
		}
	}
	if !haveDist || !haveYaw {
		return Record{}, fmt.Errorf("%w: %q", ErrIncomplete, line)
	}
	return r, nil
}
