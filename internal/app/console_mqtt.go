// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/fusion"
)

var (
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	noneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	movingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	stillStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// formatConsole renders one record for the terminal.
func formatConsole(m fusion.Message) string {
	obj := noneStyle.Render(m.Object.String())
	if m.Object == fusion.Detected {
		obj = detectedStyle.Render(m.Object.String())
	}
	gyro := stillStyle.Render(m.Motion.String())
	if m.Motion == fusion.Moving {
		gyro = movingStyle.Render(m.Motion.String())
	}
	return fmt.Sprintf("%s %5d  %s %6.2f  %s %-10s  %s %s  %s %s",
		labelStyle.Render("DIST"), m.Distance,
		labelStyle.Render("YAW"), m.Yaw,
		labelStyle.Render("DIR"), m.Direction,
		labelStyle.Render("OBJ"), obj,
		labelStyle.Render("GYRO"), gyro,
	)
}

// RunConsoleMQTT prints every record published on the fusion topic.
func RunConsoleMQTT(cfg *config.Config, w io.Writer) error {
	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDConsole, "console"))
	if err != nil {
		return err
	}

	err = subscribeMessages(client, cfg.TopicFusion, "console", func(m fusion.Message) {
		fmt.Fprintln(w, formatConsole(m))
	})
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
