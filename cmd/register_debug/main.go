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
	addr := flag.String("addr", ":8081", "listen address")
	flag.Parse()

	log.Println("starting MPU-6050 register debug tool (standalone)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunRegisterDebug(config.Get(), *addr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
