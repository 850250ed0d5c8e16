// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDirection(t *testing.T) {
	cases := []struct {
		rate float64
		want Direction
	}{
		{2.0, Right},
		{-2.0, Left},
		{0.5, Stationary},
		{1.5, Stationary},
		{-1.5, Stationary},
		{1.5001, Right},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, ClassifyDirection(c.rate, 1.5), "rate %v", c.rate)
	}
}

func TestClassifyMotion(t *testing.T) {
	assert.Equal(t, Moving, ClassifyMotion(2.0, 1.5))
	assert.Equal(t, Moving, ClassifyMotion(-2.0, 1.5))
	assert.Equal(t, Still, ClassifyMotion(0.5, 1.5))
	assert.Equal(t, Still, ClassifyMotion(-1.5, 1.5))
}

func TestClassifyObject(t *testing.T) {
	assert.Equal(t, None, ClassifyObject(70, 70))
	assert.Equal(t, Detected, ClassifyObject(69, 70))
	assert.Equal(t, Detected, ClassifyObject(0, 70))
	assert.Equal(t, None, ClassifyObject(1200, 1200))
}

func TestEnumStrings(t *testing.T) {
	// every enum value maps to a distinct label
	assert.Equal(t, []string{"Stationary", "Left", "Right"},
		[]string{Stationary.String(), Left.String(), Right.String()})
	assert.Equal(t, []string{"Still", "Moving"}, []string{Still.String(), Moving.String()})
	assert.Equal(t, []string{"None", "Detected"}, []string{None.String(), Detected.String()})
	assert.Equal(t, "Direction(9)", Direction(9).String())
}

func TestFormatLine_DefaultFields(t *testing.T) {
	rec := Classify(12.346, 2.0, 42, Thresholds{Rate: 1.5, Ceiling: 70})
	assert.Equal(t, "distance=42,yaw=12.35,direction=Right,object=Detected,gyro=Moving", FormatLine(rec, nil))
}

func TestFormatLine_CustomFields(t *testing.T) {
	fields, err := ParseFields([]string{"yaw", " Distance "})
	require.NoError(t, err)

	rec := Record{Distance: 70, Yaw: 3}
	assert.Equal(t, "yaw=3.00,distance=70", FormatLine(rec, fields))

	_, err = ParseFields([]string{"pitch"})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestParseLine_RoundTrip(t *testing.T) {
	rec := Record{Distance: 9, Yaw: 271.5, Direction: Left, Object: Detected, Motion: Moving}
	got, err := ParseLine(FormatLine(rec, nil) + "\r\n")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("ParseLine mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLine_Errors(t *testing.T) {
	_, err := ParseLine("distance=12")
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = ParseLine("distance=abc,yaw=1")
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = ParseLine("distance=1,yaw=1,direction=Up")
	assert.ErrorIs(t, err, ErrBadValue)

	got, err := ParseLine("boot,distance=5,yaw=1.00,extra=1")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), got.Distance)
}

func TestRecord_JSON(t *testing.T) {
	rec := Record{Distance: 70, Yaw: 40, Direction: Stationary, Object: None, Motion: Still}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"distance":70,"yaw":40,"direction":"Stationary","object":"None","gyro":"Still"}`, string(b))

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rec, back)
}

func TestReporter_FansOutAndSurvivesSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	var seen []Record
	failing := SinkFunc(func(Record) error { return errors.New("broker down") })
	collect := SinkFunc(func(r Record) error { seen = append(seen, r); return nil })

	rep := NewReporter(Thresholds{Rate: 1.5, Ceiling: 70}, failing, NewLineSink(&buf, nil))
	rep.AddSink(collect)

	rec := rep.Report(40, -2.0, 70)

	assert.Equal(t, Record{Distance: 70, Yaw: 40, Direction: Left, Object: None, Motion: Moving}, rec)
	assert.Equal(t, "distance=70,yaw=40.00,direction=Left,object=None,gyro=Moving\r\n", buf.String())
	assert.Equal(t, []Record{rec}, seen)
	assert.Equal(t, uint64(1), rep.Emitted())
	assert.Equal(t, uint64(1), rep.SinkErrors())
}
