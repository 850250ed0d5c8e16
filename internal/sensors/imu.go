// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"log"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/yaw_ranger/internal/config"
)

var gyroRangeDPS = []int{250, 500, 1000, 2000}
var accelRangeG = []int{2, 4, 8, 16}

// OpenIMU initializes periph, opens the configured I2C bus and configures
// the MPU-6050. The returned closer releases the bus.
func OpenIMU(cfg *config.Config) (*MPU6050, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.IMUI2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("IMU: I2C open %q: %w", cfg.IMUI2CBus, err)
	}

	imu := NewMPU6050(bus, cfg.IMUI2CAddr)

	if id, err := imu.WhoAmI(); err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("IMU: no answer at 0x%02X: %w", cfg.IMUI2CAddr, err)
	} else if id != WhoAmIValue {
		log.Printf("IMU: WARNING: WHO_AM_I = 0x%02X, expected 0x%02X (clone part?)", id, WhoAmIValue)
	} else {
		log.Printf("IMU: MPU-6050 found at 0x%02X on %s", cfg.IMUI2CAddr, bus)
	}

	if err := imu.Configure(cfg.IMUGyroRange, cfg.IMUAccelRange); err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("IMU: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", cfg.IMUGyroRange, gyroRangeDPS[cfg.IMUGyroRange])
	log.Printf("IMU: accelerometer range set to %d (±%dg)", cfg.IMUAccelRange, accelRangeG[cfg.IMUAccelRange])

	return imu, bus, nil
}
