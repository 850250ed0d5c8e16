// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/fusion"
)

const (
	oledWidth  = 128
	oledHeight = 64
)

// displayData holds the latest record for the display.
type displayData struct {
	mu      sync.RWMutex
	msg     fusion.Message
	haveMsg bool
}

func (d *displayData) set(m fusion.Message) {
	d.mu.Lock()
	d.msg = m
	d.haveMsg = true
	d.mu.Unlock()
}

func (d *displayData) snapshot() (fusion.Message, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.msg, d.haveMsg
}

func RunDisplay(cfg *config.Config) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDDisplay, "display"))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeMessages(client, cfg.TopicFusion, "display", data.set); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("display: starting update loop")
	refreshDisplay(ctx, ticker.C, data, func(img *image1bit.VerticalLSB) error {
		return dev.Draw(dev.Bounds(), img, image.Point{})
	})

	log.Println("display: shutting down")
	return dev.Halt()
}

// refreshDisplay redraws the latest record on every tick until ctx ends.
func refreshDisplay(ctx context.Context, tick <-chan time.Time, data *displayData, draw func(*image1bit.VerticalLSB) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			m, ok := data.snapshot()
			if err := draw(renderRecord(m, ok)); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderRecord draws one fusion record in four text rows.
func renderRecord(m fusion.Message, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("Yaw Ranger")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(fmt.Sprintf("D: %5d cm", m.Distance))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawString(fmt.Sprintf("Y: %6.1f", m.Yaw))

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawString(fmt.Sprintf("%s %s", m.Direction, m.Motion))

	drawer.Dot = fixed.P(0, 52)
	if m.Object == fusion.Detected {
		drawer.DrawString("OBJECT")
	} else {
		drawer.DrawString("clear")
	}

	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("Yaw Ranger")

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawString("Calibrating")

	return img
}
