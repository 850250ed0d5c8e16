// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/yaw_ranger/internal/fusion"
)

var errNotConnected = errors.New("mqtt: not connected")

// clientID falls back to a unique id so two instances never kick each
// other off the broker.
func clientID(configured, role string) string {
	if configured != "" {
		return configured
	}
	return fmt.Sprintf("yaw-ranger-%s-%s", role, uuid.NewString()[:8])
}

func connectMQTT(broker, id string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("connected to MQTT broker at %s as %s", broker, id)
	return client, nil
}

// mqttSink publishes every record as a fusion.Message. It does not wait
// for the broker acknowledgement so the control loop never blocks on the
// network.
type mqttSink struct {
	client mqtt.Client
	topic  string
	seq    uint64
}

func newMQTTSink(client mqtt.Client, topic string) *mqttSink {
	return &mqttSink{client: client, topic: topic}
}

func (s *mqttSink) Emit(r fusion.Record) error {
	if !s.client.IsConnectionOpen() {
		return errNotConnected
	}
	s.seq++
	payload, err := json.Marshal(fusion.Message{Record: r, Time: time.Now(), Seq: s.seq})
	if err != nil {
		return fmt.Errorf("mqtt: marshal: %w", err)
	}
	s.client.Publish(s.topic, 0, false, payload)
	return nil
}

// subscribeMessages decodes fusion.Message payloads on topic and hands
// them to fn. Bad payloads are logged and skipped.
func subscribeMessages(client mqtt.Client, topic, who string, fn func(fusion.Message)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m fusion.Message
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("%s: fusion unmarshal error: %v", who, err)
			return
		}
		fn(m)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("%s: subscribed to %s", who, topic)
	return nil
}
