// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/yaw_ranger/internal/config"
)

func TestMPU6050_Configure(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x68, W: []byte{RegPwrMgmt1, 0x00}},
		{Addr: 0x68, W: []byte{RegAccelConfig, 0x10}},
		{Addr: 0x68, W: []byte{RegGyroConfig, 0x10}},
	}}
	imu := NewMPU6050(bus, 0)

	require.NoError(t, imu.Configure(2, 2))
	require.NoError(t, bus.Close())
}

func TestMPU6050_ConfigureRejectsBadRange(t *testing.T) {
	bus := &i2ctest.Playback{}
	imu := NewMPU6050(bus, 0x68)
	assert.Error(t, imu.Configure(4, 0))
}

func TestMPU6050_ReadAngularRateRaw(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x69, W: []byte{RegGyroZOutH}, R: []byte{0x01, 0x48}},
		{Addr: 0x69, W: []byte{RegGyroZOutH}, R: []byte{0xFE, 0xB8}},
	}}
	imu := NewMPU6050(bus, 0x69)

	raw, err := imu.ReadAngularRateRaw()
	require.NoError(t, err)
	assert.Equal(t, int16(328), raw)

	raw, err = imu.ReadAngularRateRaw()
	require.NoError(t, err)
	assert.Equal(t, int16(-328), raw)
	require.NoError(t, bus.Close())
}

func TestMPU6050_ReadErrorWrapped(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	imu := NewMPU6050(bus, 0x68)

	_, err := imu.ReadAngularRateRaw()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mpu6050: gyro z")
}

func TestDumpRegisters(t *testing.T) {
	regs := MPU6050RegisterMap()
	ops := make([]i2ctest.IO, 0, len(regs))
	for _, r := range regs {
		ops = append(ops, i2ctest.IO{Addr: 0x68, W: []byte{r.Address}, R: []byte{r.Address ^ 0xFF}})
	}
	bus := &i2ctest.Playback{Ops: ops}

	dump := DumpRegisters(NewMPU6050(bus, 0x68))
	require.Len(t, dump, len(regs))
	for _, rv := range dump {
		assert.Equal(t, rv.Address^0xFF, rv.Value)
		assert.Empty(t, rv.Error)
	}
	require.NoError(t, bus.Close())

	info, ok := LookupRegister(RegGyroConfig)
	require.True(t, ok)
	assert.Equal(t, "GYRO_CONFIG", info.Name)
	assert.Equal(t, "0x1B GYRO_CONFIG   = 0x10", FormatRegister(RegisterValue{RegisterInfo: info, Value: 0x10}))
}

func TestParseFraming(t *testing.T) {
	cases := []struct {
		in     string
		data   int
		parity serial.Parity
		stop   serial.StopBits
	}{
		{"", 8, serial.NoParity, serial.OneStopBit},
		{"8N1", 8, serial.NoParity, serial.OneStopBit},
		{"7e2", 7, serial.EvenParity, serial.TwoStopBits},
		{" 5O1 ", 5, serial.OddParity, serial.OneStopBit},
	}
	for _, c := range cases {
		data, parity, stop, err := ParseFraming(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.data, data, c.in)
		assert.Equal(t, c.parity, parity, c.in)
		assert.Equal(t, c.stop, stop, c.in)
	}

	for _, bad := range []string{"9N1", "8M1", "8N3", "8N", "8N1X"} {
		_, _, _, err := ParseFraming(bad)
		assert.Error(t, err, bad)
	}
}

func TestLinkOptions_Mode(t *testing.T) {
	mode, err := LinkOptions{}.Mode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}, mode)

	cfg := config.Default()
	cfg.TracerBaudRate = 115200
	cfg.TracerFraming = "7O2"
	mode, err = StatusLinkOptions(cfg).Mode()
	require.NoError(t, err)
	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.OddParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)

	_, err = LinkOptions{Framing: "8X1"}.Mode()
	assert.Error(t, err)
}
