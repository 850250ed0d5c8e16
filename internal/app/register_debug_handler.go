// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/sensors"
)

// RegisterDevice is the register-level view of the gyro chip.
type RegisterDevice interface {
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg, value byte) error
}

// RegisterCmd is a request sent by the debug page.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// RegisterResponse is what the debug page receives back.
type RegisterResponse struct {
	Type        string                  `json:"type"` // "register_data", "register_map", "registers", "status", "error"
	Address     string                  `json:"addr,omitempty"`
	Value       string                  `json:"value,omitempty"`
	Registers   []sensors.RegisterValue `json:"registers,omitempty"`
	RegisterMap []sensors.RegisterInfo  `json:"register_map,omitempty"`
	Timestamp   string                  `json:"timestamp,omitempty"`
	Message     string                  `json:"message,omitempty"`
}

// RegisterDebugger serves register reads and writes over HTTP and websocket.
// Bus access is serialized.
type RegisterDebugger struct {
	mu  sync.Mutex
	dev RegisterDevice
}

func NewRegisterDebugger(dev RegisterDevice) *RegisterDebugger {
	return &RegisterDebugger{dev: dev}
}

func parseHexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %w", s, err)
	}
	return byte(v), nil
}

// Handle executes one command and builds its response.
func (d *RegisterDebugger) Handle(cmd RegisterCmd) RegisterResponse {
	now := time.Now().Format(time.RFC3339)

	switch cmd.Action {
	case "get_map":
		return RegisterResponse{Type: "register_map", RegisterMap: sensors.MPU6050RegisterMap()}

	case "read":
		addr, err := parseHexByte(cmd.Address)
		if err != nil {
			return RegisterResponse{Type: "error", Message: err.Error()}
		}
		d.mu.Lock()
		v, err := d.dev.ReadRegister(addr)
		d.mu.Unlock()
		if err != nil {
			return RegisterResponse{Type: "error", Message: fmt.Sprintf("read error: %v", err)}
		}
		return RegisterResponse{
			Type:      "register_data",
			Address:   fmt.Sprintf("0x%02X", addr),
			Value:     fmt.Sprintf("0x%02X", v),
			Timestamp: now,
		}

	case "read_all":
		d.mu.Lock()
		regs := sensors.DumpRegisters(d.dev)
		d.mu.Unlock()
		return RegisterResponse{Type: "registers", Registers: regs, Timestamp: now}

	case "write":
		addr, err := parseHexByte(cmd.Address)
		if err != nil {
			return RegisterResponse{Type: "error", Message: err.Error()}
		}
		info, ok := sensors.LookupRegister(addr)
		if ok && info.Access == "R" {
			return RegisterResponse{Type: "error", Message: fmt.Sprintf("register %s is read-only", info.Name)}
		}
		val, err := parseHexByte(cmd.Value)
		if err != nil {
			return RegisterResponse{Type: "error", Message: err.Error()}
		}
		d.mu.Lock()
		err = d.dev.WriteRegister(addr, val)
		d.mu.Unlock()
		if err != nil {
			return RegisterResponse{Type: "error", Message: fmt.Sprintf("write error: %v", err)}
		}
		log.Printf("register_debug: wrote 0x%02X to 0x%02X", val, addr)
		return RegisterResponse{
			Type:      "status",
			Address:   fmt.Sprintf("0x%02X", addr),
			Value:     fmt.Sprintf("0x%02X", val),
			Timestamp: now,
			Message:   "ok",
		}

	default:
		return RegisterResponse{Type: "error", Message: fmt.Sprintf("unknown action: %s", cmd.Action)}
	}
}

// HandleWS runs the websocket command loop.
func (d *RegisterDebugger) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Send register map on connection
	if err := conn.WriteJSON(d.Handle(RegisterCmd{Action: "get_map"})); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(d.Handle(cmd)); err != nil {
			log.Printf("register_debug: write error: %v", err)
			return
		}
	}
}

// HandleRegisters returns a JSON dump of every mapped register.
func (d *RegisterDebugger) HandleRegisters(w http.ResponseWriter, r *http.Request) {
	resp := d.Handle(RegisterCmd{Action: "read_all"})
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("register_debug: json encode error: %v", err)
	}
}

// NewRegisterDebugMux wires the debugger routes.
func NewRegisterDebugMux(d *RegisterDebugger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.HandleWS)
	mux.HandleFunc("/api/registers", d.HandleRegisters)
	return mux
}

// RunRegisterDebug opens the MPU-6050 and serves the debugger on addr.
func RunRegisterDebug(cfg *config.Config, addr string) error {
	imu, closer, err := sensors.OpenIMU(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, rv := range sensors.DumpRegisters(imu) {
		log.Printf("register_debug: %s", sensors.FormatRegister(rv))
	}

	log.Printf("register debug tool listening on %s", addr)
	return http.ListenAndServe(addr, NewRegisterDebugMux(NewRegisterDebugger(imu)))
}
