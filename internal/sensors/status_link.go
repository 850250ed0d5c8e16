// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/relabs-tech/yaw_ranger/internal/config"
)

const (
	defaultStatusBaud    = 9600
	defaultStatusFraming = "8N1"
	defaultStatusTimeout = 2 * time.Second
)

// LinkOptions is the host end of the status-line UART.
type LinkOptions struct {
	BaudRate    int
	Framing     string // data bits, parity, stop bits: "8N1", "7E2"
	ReadTimeout time.Duration
}

// StatusLinkOptions builds the tracer's link options from the config.
func StatusLinkOptions(cfg *config.Config) LinkOptions {
	return LinkOptions{BaudRate: cfg.TracerBaudRate, Framing: cfg.TracerFraming}
}

// ParseFraming decodes a three character framing string such as "8N1".
func ParseFraming(s string) (dataBits int, parity serial.Parity, stopBits serial.StopBits, err error) {
	f := strings.ToUpper(strings.TrimSpace(s))
	if f == "" {
		f = defaultStatusFraming
	}
	if len(f) != 3 {
		return 0, 0, 0, fmt.Errorf("framing %q: want <data bits><parity><stop bits>, e.g. 8N1", s)
	}

	if f[0] < '5' || f[0] > '8' {
		return 0, 0, 0, fmt.Errorf("framing %q: data bits must be 5-8", s)
	}
	dataBits = int(f[0] - '0')

	switch f[1] {
	case 'N':
		parity = serial.NoParity
	case 'E':
		parity = serial.EvenParity
	case 'O':
		parity = serial.OddParity
	default:
		return 0, 0, 0, fmt.Errorf("framing %q: parity must be N, E or O", s)
	}

	switch f[2] {
	case '1':
		stopBits = serial.OneStopBit
	case '2':
		stopBits = serial.TwoStopBits
	default:
		return 0, 0, 0, fmt.Errorf("framing %q: stop bits must be 1 or 2", s)
	}
	return dataBits, parity, stopBits, nil
}

// Mode converts the options into a go.bug.st/serial mode, filling in
// 9600 8N1 for unset values.
func (o LinkOptions) Mode() (*serial.Mode, error) {
	data, parity, stop, err := ParseFraming(o.Framing)
	if err != nil {
		return nil, err
	}
	baud := o.BaudRate
	if baud <= 0 {
		baud = defaultStatusBaud
	}
	return &serial.Mode{BaudRate: baud, DataBits: data, Parity: parity, StopBits: stop}, nil
}

// OpenStatusPort opens the port the device prints status lines on. Reads
// time out so an idle link returns (0, nil) instead of blocking forever.
func OpenStatusPort(path string, opts LinkOptions) (serial.Port, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, fmt.Errorf("status port: %w", err)
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("status port: open %s: %w", path, err)
	}
	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = defaultStatusTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("status port: read timeout: %w", err)
	}
	return port, nil
}
