// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import "time"

// Message is the MQTT payload: a record plus its emission time.
type Message struct {
	Record
	Time time.Time `json:"time"`
	Seq  uint64    `json:"seq"`
}
