// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Sink receives every emitted record.
type Sink interface {
	Emit(Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Record) error

func (f SinkFunc) Emit(r Record) error { return f(r) }

// Reporter classifies and emits records. A failing sink is logged and
// counted; it never stops the others or the loop.
type Reporter struct {
	th    Thresholds
	sinks []Sink

	emitted    uint64
	sinkErrors uint64
}

func NewReporter(th Thresholds, sinks ...Sink) *Reporter {
	return &Reporter{th: th, sinks: sinks}
}

// AddSink registers another sink.
func (r *Reporter) AddSink(s Sink) { r.sinks = append(r.sinks, s) }

// Report builds the record for one accepted packet and emits it.
func (r *Reporter) Report(heading, rate float64, distance uint16) Record {
	rec := Classify(heading, rate, distance, r.th)
	r.emitted++
	for _, s := range r.sinks {
		if err := s.Emit(rec); err != nil {
			r.sinkErrors++
			if r.sinkErrors == 1 || r.sinkErrors%100 == 0 {
				log.Printf("fusion: sink error (%d so far): %v", r.sinkErrors, err)
			}
		}
	}
	return rec
}

func (r *Reporter) Emitted() uint64    { return r.emitted }
func (r *Reporter) SinkErrors() uint64 { return r.sinkErrors }

// LineSink writes one status line per record.
type LineSink struct {
	mu     sync.Mutex
	w      io.Writer
	fields []Field
}

func NewLineSink(w io.Writer, fields []Field) *LineSink {
	return &LineSink{w: w, fields: fields}
}

func (s *LineSink) Emit(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%s\r\n", FormatLine(r, s.fields)); err != nil {
		return fmt.Errorf("line sink: %w", err)
	}
	return nil
}
