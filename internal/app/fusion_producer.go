// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/fusion"
	"github.com/relabs-tech/yaw_ranger/internal/orientation"
	"github.com/relabs-tech/yaw_ranger/internal/rangefinder"
	"github.com/relabs-tech/yaw_ranger/internal/sensors"
)

// Above this spread the calibration was most likely taken while moving.
const noisyCalibrationStdDev = 1.0 // deg/s

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openGyro returns the real MPU-6050 or, in demo mode, a synthetic one.
func openGyro(cfg *config.Config, scale float64, demo bool) (orientation.GyroBus, io.Closer, error) {
	if demo {
		log.Println("using mock gyro")
		return orientation.NewMockGyro(scale, 0.8), nopCloser{}, nil
	}
	imu, closer, err := sensors.OpenIMU(cfg)
	if err != nil {
		return nil, nil, err
	}
	return imu, closer, nil
}

func openRange(cfg *config.Config, demo bool) (rangefinder.ByteSource, io.Closer, error) {
	if demo {
		log.Println("using mock rangefinder")
		return rangefinder.NewMockSource(10 * time.Millisecond), nopCloser{}, nil
	}
	src, closer, err := sensors.OpenLidar(cfg)
	if err != nil {
		return nil, nil, err
	}
	return src, closer, nil
}

func calibrate(gyro orientation.GyroBus, scale float64, n int) orientation.Calibration {
	log.Printf("calibrating gyro bias from %d samples, keep the device still", n)
	cal := orientation.Calibrate(gyro, scale, n)
	log.Printf("gyro bias: %.4f°/s (stddev %.4f°/s, %d failed reads)", float64(cal.Bias), cal.StdDev, cal.Failures)
	if cal.StdDev > noisyCalibrationStdDev {
		log.Printf("WARNING: gyro was probably moving during calibration, heading will drift")
	}
	return cal
}

// RunFusion calibrates the gyro, opens the rangefinder and every output,
// and runs the control loop until SIGINT/SIGTERM.
func RunFusion(cfg *config.Config, demo bool) error {
	scale, err := orientation.ScaleForRange(cfg.IMUGyroRange)
	if err != nil {
		return err
	}
	fields, err := fusion.ParseFields(cfg.OutputFields)
	if err != nil {
		return fmt.Errorf("OUTPUT_FIELDS: %w", err)
	}

	// --- gyro + calibration ---
	gyro, gyroCloser, err := openGyro(cfg, scale, demo)
	if err != nil {
		return err
	}
	defer gyroCloser.Close()

	clock := orientation.NewMonotonicClock()
	cal := calibrate(gyro, scale, cfg.CalibrationSamples)
	state := orientation.NewState(cal.Bias, clock.NowMillis())
	integrator := orientation.NewIntegrator(gyro, clock, scale, &state)

	// --- rangefinder ---
	src, srcCloser, err := openRange(cfg, demo)
	if err != nil {
		return err
	}
	defer srcCloser.Close()

	// --- outputs ---
	var out io.Writer = os.Stdout
	if cfg.OutputSerialPort != "" {
		port, err := sensors.OpenOutput(cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		out = port
	}
	reporter := fusion.NewReporter(
		fusion.Thresholds{Rate: cfg.DirectionThreshold, Ceiling: cfg.DistanceCeiling},
		fusion.NewLineSink(out, fields),
	)

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDFusion, "fusion"))
	if err != nil {
		log.Printf("WARNING: MQTT connect error, publishing disabled: %v", err)
	} else {
		defer client.Disconnect(250)
		reporter.AddSink(newMQTTSink(client, cfg.TopicFusion))
	}

	loop := NewLoop(integrator, rangefinder.NewDecoder(), src, reporter, cfg.DistanceCeiling)
	loop.Interval = time.Duration(cfg.LoopInterval) * time.Millisecond

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("starting control loop (ceiling=%dcm, threshold=%.2f°/s)", cfg.DistanceCeiling, cfg.DirectionThreshold)
	return loop.Run(ctx)
}

// RunCalibration measures and prints the gyro bias without starting the
// loop. Nothing is stored; the fusion process always recalibrates.
func RunCalibration(cfg *config.Config, demo bool, w io.Writer) error {
	scale, err := orientation.ScaleForRange(cfg.IMUGyroRange)
	if err != nil {
		return err
	}
	gyro, closer, err := openGyro(cfg, scale, demo)
	if err != nil {
		return err
	}
	defer closer.Close()

	start := time.Now()
	cal := calibrate(gyro, scale, cfg.CalibrationSamples)
	elapsed := time.Since(start)

	fmt.Fprintf(w, "samples:        %d (%.1f ms)\n", cal.Samples, float64(elapsed.Microseconds())/1000)
	fmt.Fprintf(w, "bias:           %.4f °/s (%.1f counts)\n", float64(cal.Bias), float64(cal.Bias)*scale)
	fmt.Fprintf(w, "stddev:         %.4f °/s\n", cal.StdDev)
	fmt.Fprintf(w, "failed reads:   %d\n", cal.Failures)
	if cal.StdDev > noisyCalibrationStdDev {
		fmt.Fprintln(w, "result:         NOISY, repeat with the device at rest")
	} else {
		fmt.Fprintln(w, "result:         OK")
	}
	return nil
}
