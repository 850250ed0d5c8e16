// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/rangefinder"
)

func uartOptions(port string, baud int) serial.OpenOptions {
	return serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
}

// OpenLidar opens the rangefinder UART and wraps it in a non-blocking
// byte source. Closing the returned closer also stops the pump.
func OpenLidar(cfg *config.Config) (*rangefinder.StreamSource, io.Closer, error) {
	opts := uartOptions(cfg.LidarSerialPort, cfg.LidarBaudRate)
	port, err := serial.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("lidar: open %s: %w", opts.PortName, err)
	}
	log.Printf("lidar: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)

	return rangefinder.NewStreamSource(port, rangefinder.DefaultBufferSize), port, nil
}

// OpenOutput opens the UART that carries status lines to the host.
func OpenOutput(cfg *config.Config) (io.WriteCloser, error) {
	opts := uartOptions(cfg.OutputSerialPort, cfg.OutputBaudRate)
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("output: open %s: %w", opts.PortName, err)
	}
	log.Printf("output: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)
	return port, nil
}
