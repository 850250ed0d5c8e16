// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/yaw_ranger/internal/fusion"
	"github.com/relabs-tech/yaw_ranger/internal/orientation"
	"github.com/relabs-tech/yaw_ranger/internal/rangefinder"
)

const statsLogInterval = 30 * time.Second

// Loop is the control loop: gyro first, then at most one rangefinder
// packet, then at most one report.
type Loop struct {
	integrator *orientation.Integrator
	decoder    *rangefinder.Decoder
	source     rangefinder.ByteSource
	reporter   *fusion.Reporter
	ceiling    uint16

	// Interval paces Run; zero spins as fast as the buses allow.
	Interval time.Duration

	iterations uint64
}

func NewLoop(integ *orientation.Integrator, dec *rangefinder.Decoder, src rangefinder.ByteSource,
	rep *fusion.Reporter, ceiling uint16) *Loop {
	return &Loop{
		integrator: integ,
		decoder:    dec,
		source:     src,
		reporter:   rep,
		ceiling:    ceiling,
	}
}

// Step runs one iteration and reports whether a record was emitted.
func (l *Loop) Step() (fusion.Record, bool) {
	l.iterations++
	l.integrator.Update()

	pkt, ok := l.decoder.Poll(l.source)
	if !ok {
		return fusion.Record{}, false
	}
	dist := rangefinder.Clamp(pkt.Distance, l.ceiling)
	return l.reporter.Report(l.integrator.Heading(), l.integrator.Rate(), dist), true
}

// Run repeats Step until ctx is cancelled. There is no other way out.
func (l *Loop) Run(ctx context.Context) error {
	var ticker *time.Ticker
	if l.Interval > 0 {
		ticker = time.NewTicker(l.Interval)
		defer ticker.Stop()
	}
	lastStats := time.Now()

	for {
		select {
		case <-ctx.Done():
			l.logStats()
			return nil
		default:
		}

		l.Step()

		if time.Since(lastStats) >= statsLogInterval {
			l.logStats()
			lastStats = time.Now()
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
	}
}

func (l *Loop) logStats() {
	s := l.decoder.Stats()
	log.Printf("fusion: iterations=%d heading=%.2f emitted=%d accepted=%d checksum_err=%d noise=%d gyro_err=%d",
		l.iterations, l.integrator.Heading(), l.reporter.Emitted(),
		s.Accepted, s.ChecksumErrors, s.NoiseBytes, l.integrator.ReadFailures())
}

// Iterations returns how many times Step has run.
func (l *Loop) Iterations() uint64 { return l.iterations }
