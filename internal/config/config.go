// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownKey is returned when the config file names a key we do not know.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDFusion  string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicFusion string

	// IMU Hardware (MPU-6050 over I2C)
	IMUI2CBus  string
	IMUI2CAddr uint16

	// IMU Sensor Ranges
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Number of stationary samples averaged into the gyro bias at startup.
	CalibrationSamples int

	// Rangefinder UART
	LidarSerialPort string
	LidarBaudRate   int

	// Fusion
	DistanceCeiling    uint16  // cm; readings are clamped to this
	DirectionThreshold float64 // deg/s
	LoopInterval       int     // milliseconds, 0 = spin

	// Status line output. Empty port means stdout.
	OutputSerialPort string
	OutputBaudRate   int
	OutputFields     []string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds

	// Tracer (host side)
	TracerSerialPort        string
	TracerBaudRate          int
	TracerFraming           string // "8N1" style
	TracerImage             string
	TracerWidth             int
	TracerHeight            int
	TracerDrawDistance      int     // cm
	TracerMovementThreshold float64 // degrees between updates
}

// Package-level unexported variables for the singleton used by the cmd/ mains.
// Library code takes *Config explicitly.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config populated with the values used by the reference
// build: MPU-6050 at 0x68 with ±1000°/s, TF-Mini-S at 115200 baud, 70 cm
// ceiling and a 1.5°/s direction threshold.
func Default() *Config {
	return &Config{
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDFusion:  "yaw-ranger-fusion",
		MQTTClientIDConsole: "yaw-ranger-console",
		MQTTClientIDWeb:     "yaw-ranger-web",
		MQTTClientIDDisplay: "yaw-ranger-display",

		TopicFusion: "yaw_ranger/fusion",

		IMUI2CBus:     "",
		IMUI2CAddr:    0x68,
		IMUGyroRange:  2,
		IMUAccelRange: 2,

		CalibrationSamples: 200,

		LidarSerialPort: "/dev/serial0",
		LidarBaudRate:   115200,

		DistanceCeiling:    70,
		DirectionThreshold: 1.5,
		LoopInterval:       0,

		OutputBaudRate: 9600,
		OutputFields:   []string{"distance", "yaw", "direction", "object", "gyro"},

		WebServerPort: 8080,

		DisplayI2CBus:         "",
		DisplayUpdateInterval: 200,

		TracerBaudRate:          9600,
		TracerFraming:           "8N1",
		TracerImage:             "trace.png",
		TracerWidth:             800,
		TracerHeight:            600,
		TracerDrawDistance:      10,
		TracerMovementThreshold: 0.5,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseRange(key, value string, min, max int) (int, error) {
	val, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if val < min || val > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, val)
	}
	return val, nil
}

// maxBaudRate bounds every *_BAUD_RATE key.
const maxBaudRate = 4000000

// parseThreshold accepts finite, non-negative floats.
func parseThreshold(key, value string) (float64, error) {
	th, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if math.IsNaN(th) || math.IsInf(th, 0) || th < 0 {
		return 0, fmt.Errorf("%s must be a finite number >= 0, got %q", key, value)
	}
	return th, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_FUSION":
		c.MQTTClientIDFusion = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_FUSION":
		c.TopicFusion = value

	// IMU Hardware
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		c.IMUI2CAddr = uint16(addr)

	// IMU Sensor Ranges
	case "IMU_GYRO_RANGE":
		rangeVal, err := parseRange(key, value, 0, 3)
		if err != nil {
			return fmt.Errorf("%w (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s)", err)
		}
		c.IMUGyroRange = byte(rangeVal)
	case "IMU_ACCEL_RANGE":
		rangeVal, err := parseRange(key, value, 0, 3)
		if err != nil {
			return fmt.Errorf("%w (0=±2g, 1=±4g, 2=±8g, 3=±16g)", err)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "CALIBRATION_SAMPLES":
		n, err := parseRange(key, value, 1, 100000)
		if err != nil {
			return err
		}
		c.CalibrationSamples = n

	// Rangefinder
	case "LIDAR_SERIAL_PORT":
		c.LidarSerialPort = value
	case "LIDAR_BAUD_RATE":
		rate, err := parseRange(key, value, 1, maxBaudRate)
		if err != nil {
			return err
		}
		c.LidarBaudRate = rate

	// Fusion
	case "DISTANCE_CEILING":
		ceiling, err := parseRange(key, value, 1, 65535)
		if err != nil {
			return err
		}
		c.DistanceCeiling = uint16(ceiling)
	case "DIRECTION_THRESHOLD":
		th, err := parseThreshold(key, value)
		if err != nil {
			return err
		}
		c.DirectionThreshold = th
	case "LOOP_INTERVAL":
		interval, err := parseRange(key, value, 0, 60000)
		if err != nil {
			return err
		}
		c.LoopInterval = interval

	// Output
	case "OUTPUT_SERIAL_PORT":
		c.OutputSerialPort = value
	case "OUTPUT_BAUD_RATE":
		rate, err := parseRange(key, value, 1, maxBaudRate)
		if err != nil {
			return err
		}
		c.OutputBaudRate = rate
	case "OUTPUT_FIELDS":
		var fields []string
		for _, f := range strings.Split(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		c.OutputFields = fields

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Tracer
	case "TRACER_SERIAL_PORT":
		c.TracerSerialPort = value
	case "TRACER_BAUD_RATE":
		rate, err := parseRange(key, value, 1, maxBaudRate)
		if err != nil {
			return err
		}
		c.TracerBaudRate = rate
	case "TRACER_FRAMING":
		if len(value) != 3 {
			return fmt.Errorf("invalid TRACER_FRAMING %q: want e.g. 8N1", value)
		}
		c.TracerFraming = value
	case "TRACER_IMAGE":
		c.TracerImage = value
	case "TRACER_WIDTH":
		w, err := parseRange(key, value, 64, 8192)
		if err != nil {
			return err
		}
		c.TracerWidth = w
	case "TRACER_HEIGHT":
		h, err := parseRange(key, value, 64, 8192)
		if err != nil {
			return err
		}
		c.TracerHeight = h
	case "TRACER_DRAW_DISTANCE":
		d, err := parseRange(key, value, 1, 65535)
		if err != nil {
			return err
		}
		c.TracerDrawDistance = d
	case "TRACER_MOVEMENT_THRESHOLD":
		th, err := parseThreshold(key, value)
		if err != nil {
			return err
		}
		c.TracerMovementThreshold = th

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicFusion == "" {
		return fmt.Errorf("TOPIC_FUSION is required")
	}
	if c.LidarSerialPort == "" {
		return fmt.Errorf("LIDAR_SERIAL_PORT is required")
	}
	for key, rate := range map[string]int{
		"LIDAR_BAUD_RATE":  c.LidarBaudRate,
		"OUTPUT_BAUD_RATE": c.OutputBaudRate,
		"TRACER_BAUD_RATE": c.TracerBaudRate,
	} {
		if rate <= 0 || rate > maxBaudRate {
			return fmt.Errorf("%s must be 1-%d, got %d", key, maxBaudRate, rate)
		}
	}
	if c.CalibrationSamples <= 0 {
		return fmt.Errorf("CALIBRATION_SAMPLES is required")
	}
	if len(c.OutputFields) == 0 {
		return fmt.Errorf("OUTPUT_FIELDS must name at least one field")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once so only the first call loads the file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
