// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is display metadata for one register.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterValue is a register read back from the device.
type RegisterValue struct {
	RegisterInfo
	Value byte   `json:"value"`
	Error string `json:"error,omitempty"`
}

// MPU6050RegisterMap returns the registers this project configures or reads.
func MPU6050RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: RegSmplrtDiv, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Gyro_Output_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Address: RegConfig, Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "External FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=256Hz, 1=188Hz, 2=98Hz, 3=42Hz, 4=20Hz, 5=10Hz, 6=5Hz"},
			}},
		{Address: RegGyroConfig, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:5", Name: "XG_ST/YG_ST/ZG_ST", Description: "Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			}},
		{Address: RegAccelConfig, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:5", Name: "XA_ST/YA_ST/ZA_ST", Description: "Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Address: RegGyroZOutH, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z high byte", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "GYRO_ZOUT[15:8]", Description: "Yaw rate high byte", Values: "0-255"},
			}},
		{Address: RegGyroZOutH + 1, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z low byte", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "GYRO_ZOUT[7:0]", Description: "Yaw rate low byte", Values: "0-255"},
			}},
		{Address: RegPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: "0x40",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Reset all registers", Values: "1=Reset"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "5", Name: "CYCLE", Description: "Cycle between sleep and sample", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Disable temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL X gyro"},
			}},
		{Address: RegWhoAmI, Name: "WHO_AM_I", Description: "Device identity", Access: "R", Default: "0x68",
			BitFields: []BitField{
				{Bits: "6:1", Name: "WHO_AM_I", Description: "Upper 6 bits of the 7-bit address", Values: "0x34"},
			}},
	}
}

// LookupRegister finds a register in the map by address.
func LookupRegister(addr byte) (RegisterInfo, bool) {
	for _, r := range MPU6050RegisterMap() {
		if r.Address == addr {
			return r, true
		}
	}
	return RegisterInfo{}, false
}

// RegisterReader is anything that can read a single register.
type RegisterReader interface {
	ReadRegister(reg byte) (byte, error)
}

// DumpRegisters reads every mapped register. Read errors are recorded per
// register instead of aborting the dump.
func DumpRegisters(m RegisterReader) []RegisterValue {
	regs := MPU6050RegisterMap()
	out := make([]RegisterValue, 0, len(regs))
	for _, r := range regs {
		v, err := m.ReadRegister(r.Address)
		rv := RegisterValue{RegisterInfo: r, Value: v}
		if err != nil {
			rv.Error = err.Error()
		}
		out = append(out, rv)
	}
	return out
}

// FormatRegister renders a dump line such as "0x1B GYRO_CONFIG   = 0x10".
func FormatRegister(rv RegisterValue) string {
	if rv.Error != "" {
		return fmt.Sprintf("0x%02X %-13s = ERROR %s", rv.Address, rv.Name, rv.Error)
	}
	return fmt.Sprintf("0x%02X %-13s = 0x%02X", rv.Address, rv.Name, rv.Value)
}
