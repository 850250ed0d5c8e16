// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// MPU-6050 register addresses used by this project.
const (
	RegSmplrtDiv   = 0x19
	RegConfig      = 0x1A
	RegGyroConfig  = 0x1B
	RegAccelConfig = 0x1C
	RegGyroZOutH   = 0x47
	RegPwrMgmt1    = 0x6B
	RegWhoAmI      = 0x75

	// DefaultAddr is the I2C address with AD0 tied low.
	DefaultAddr = 0x68
	// WhoAmIValue is what a genuine part answers on RegWhoAmI.
	WhoAmIValue = 0x68
)

// MPU6050 talks to the gyro over I2C. Every call is one synchronous bus
// transaction.
type MPU6050 struct {
	dev *i2c.Dev
}

func NewMPU6050(bus i2c.Bus, addr uint16) *MPU6050 {
	if addr == 0 {
		addr = DefaultAddr
	}
	return &MPU6050{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Configure wakes the chip and sets the full-scale ranges
// (gyro 0=±250…3=±2000°/s, accel 0=±2g…3=±16g).
func (m *MPU6050) Configure(gyroRange, accelRange byte) error {
	if gyroRange > 3 || accelRange > 3 {
		return fmt.Errorf("mpu6050: range codes must be 0-3, got gyro=%d accel=%d", gyroRange, accelRange)
	}
	if err := m.WriteRegister(RegPwrMgmt1, 0x00); err != nil {
		return fmt.Errorf("mpu6050: wake: %w", err)
	}
	if err := m.WriteRegister(RegAccelConfig, accelRange<<3); err != nil {
		return fmt.Errorf("mpu6050: accel range: %w", err)
	}
	if err := m.WriteRegister(RegGyroConfig, gyroRange<<3); err != nil {
		return fmt.Errorf("mpu6050: gyro range: %w", err)
	}
	return nil
}

// ReadAngularRateRaw reads GYRO_ZOUT (big endian, two's complement).
func (m *MPU6050) ReadAngularRateRaw() (int16, error) {
	var buf [2]byte
	if err := m.dev.Tx([]byte{RegGyroZOutH}, buf[:]); err != nil {
		return 0, fmt.Errorf("mpu6050: gyro z: %w", err)
	}
	return int16(uint16(buf[0])<<8 | uint16(buf[1])), nil
}

func (m *MPU6050) ReadRegister(reg byte) (byte, error) {
	var buf [1]byte
	if err := m.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("mpu6050: read 0x%02X: %w", reg, err)
	}
	return buf[0], nil
}

func (m *MPU6050) WriteRegister(reg, value byte) error {
	if _, err := m.dev.Write([]byte{reg, value}); err != nil {
		return fmt.Errorf("mpu6050: write 0x%02X: %w", reg, err)
	}
	return nil
}

// WhoAmI returns the identity register.
func (m *MPU6050) WhoAmI() (byte, error) {
	return m.ReadRegister(RegWhoAmI)
}
