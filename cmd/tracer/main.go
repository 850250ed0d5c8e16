// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/yaw_ranger/internal/app"
	"github.com/relabs-tech/yaw_ranger/internal/config"
)

func main() {
	configPath := flag.String("config", "./fusion_config.txt", "path to configuration file")
	port := flag.String("port", "", "status line serial port (overrides TRACER_SERIAL_PORT, \"-\" for stdin)")
	out := flag.String("out", "", "PNG output path (overrides TRACER_IMAGE)")
	flag.Parse()

	log.Println("starting yaw-ranger tracer (status lines → PNG)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	switch *port {
	case "":
	case "-":
		cfg.TracerSerialPort = ""
	default:
		cfg.TracerSerialPort = *port
	}
	if *out != "" {
		cfg.TracerImage = *out
	}

	if err := app.RunTracer(cfg, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
