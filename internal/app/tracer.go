// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/fusion"
	"github.com/relabs-tech/yaw_ranger/internal/sensors"
	"github.com/relabs-tech/yaw_ranger/internal/tracer"
)

const (
	maxLineLength = 256
	saveEvery     = 100 // records between PNG snapshots
)

// lineReader splits a byte stream into lines. A serial port with a read
// timeout returns (0, nil) when idle, which bufio treats as an error after
// a few retries, so reads are chunked here instead.
type lineReader struct {
	r     io.Reader
	buf   []byte
	chunk [64]byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r}
}

// Next returns the next line without its terminator.
func (l *lineReader) Next() (string, error) {
	for {
		if i := bytes.IndexByte(l.buf, '\n'); i >= 0 {
			line := string(bytes.TrimRight(l.buf[:i], "\r"))
			l.buf = append(l.buf[:0], l.buf[i+1:]...)
			return line, nil
		}

		n, err := l.r.Read(l.chunk[:])
		l.buf = append(l.buf, l.chunk[:n]...)
		if len(l.buf) > maxLineLength {
			// garbage without newlines
			l.buf = l.buf[:0]
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(l.buf) > 0 {
				line := string(bytes.TrimRight(l.buf, "\r"))
				l.buf = l.buf[:0]
				return line, nil
			}
			return "", err
		}
	}
}

// savePNG renders t next to path and renames it into place so a viewer
// never sees a half written file.
func savePNG(t *tracer.Tracer, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".trace-*.png")
	if err != nil {
		return fmt.Errorf("tracer: create image: %w", err)
	}
	if err := png.Encode(tmp, t.Render()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("tracer: encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tracer: write image: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func tracerConfig(cfg *config.Config) tracer.Config {
	return tracer.Config{
		Width:             cfg.TracerWidth,
		Height:            cfg.TracerHeight,
		DrawDistance:      cfg.TracerDrawDistance,
		MovementThreshold: cfg.TracerMovementThreshold,
	}
}

// openTracerInput opens the status line port, or stdin when none is set.
func openTracerInput(cfg *config.Config) (io.Reader, io.Closer, error) {
	if cfg.TracerSerialPort == "" {
		log.Println("tracer: reading status lines from stdin")
		return os.Stdin, nopCloser{}, nil
	}
	port, err := sensors.OpenStatusPort(cfg.TracerSerialPort, sensors.StatusLinkOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	log.Printf("tracer: reading status lines from %s at %d %s", cfg.TracerSerialPort, cfg.TracerBaudRate, cfg.TracerFraming)
	return port, port, nil
}

// RunTracer draws the incoming status lines into cfg.TracerImage. The
// first record calibrates the reference direction. SIGHUP re-calibrates
// and clears the drawing.
func RunTracer(cfg *config.Config, in io.Reader) error {
	if in == nil {
		r, closer, err := openTracerInput(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()
		in = r
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	return traceLines(ctx, newLineReader(in), tracer.New(tracerConfig(cfg)), hup, cfg.TracerImage)
}

func traceLines(ctx context.Context, lr *lineReader, t *tracer.Tracer, hup <-chan os.Signal, imagePath string) error {
	type result struct {
		line string
		err  error
	}
	lines := make(chan result)
	go func() {
		for {
			line, err := lr.Next()
			select {
			case lines <- result{line, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var parseErrors uint64
	finish := func() error {
		log.Printf("tracer: %d records, %d segments, %d bad lines", t.Updates(), len(t.Segments()), parseErrors)
		return savePNG(t, imagePath)
	}

	for {
		select {
		case <-ctx.Done():
			return finish()

		case <-hup:
			t.Calibrate()
			t.Reset()
			log.Printf("tracer: re-calibrated at yaw %.2f, drawing cleared", t.Yaw())

		case res := <-lines:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return finish()
				}
				if err := finish(); err != nil {
					log.Printf("tracer: %v", err)
				}
				return fmt.Errorf("tracer: read: %w", res.err)
			}
			if res.line == "" {
				continue
			}

			rec, err := fusion.ParseLine(res.line)
			if err != nil {
				parseErrors++
				continue
			}
			t.Update(int(rec.Distance), rec.Yaw)
			if !t.Calibrated() {
				t.Calibrate()
				log.Printf("tracer: calibrated at yaw %.2f", rec.Yaw)
			}

			if t.Updates()%saveEvery == 0 {
				if err := savePNG(t, imagePath); err != nil {
					log.Printf("tracer: %v", err)
				}
			}
		}
	}
}
