package config

import (
	"github.com/serebryakov7/obd2-stats/internal/obd2"
	"github.com/serebryakov7/obd2-stats/pkg/mqtt"
)

// Значения по умолчанию (совпадают с флагами агента).
const (
	DefaultTransportType = "can"
	DefaultCANInterface  = "can0"
	DefaultSerialPort    = "/dev/ttyUSB0"
	DefaultSerialBaud    = 115200
	DefaultDBPath        = "obd2_capabilities.db"
	DefaultReportBaud    = 115200

	DefaultCycleMs   = 1000
	DefaultTimeoutMs = 100
	DefaultBackoffMs = 5

	DefaultMQTTUpdateMs     = 10000
	DefaultMQTTCommandTopic = "vehicle/command/obd2"
)

// Normalize заполняет пустые поля значениями по умолчанию.
// Допускается изменение конфигурации.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	a := &cfg.Agent

	if a.Transport.Type == "" {
		a.Transport.Type = DefaultTransportType
	}
	if a.Transport.CANInterface == "" {
		a.Transport.CANInterface = DefaultCANInterface
	}
	if a.Transport.SerialPort == "" {
		a.Transport.SerialPort = DefaultSerialPort
	}
	if a.Transport.Baud == 0 {
		a.Transport.Baud = DefaultSerialBaud
	}

	if a.Poll.CycleMs == 0 {
		a.Poll.CycleMs = DefaultCycleMs
	}
	if a.Poll.TimeoutMs == 0 {
		a.Poll.TimeoutMs = DefaultTimeoutMs
	}
	if a.Poll.BackoffMs == 0 {
		a.Poll.BackoffMs = DefaultBackoffMs
	}

	if len(a.Parameters) == 0 {
		a.Parameters = append(a.Parameters, obd2.DefaultParameterNames...)
	}

	if a.MQTT.Broker == "" {
		a.MQTT.Broker = mqtt.DefaultBroker
	}
	if a.MQTT.Topic == "" {
		a.MQTT.Topic = mqtt.DefaultTopic
	}
	if a.MQTT.CommandTopic == "" {
		a.MQTT.CommandTopic = DefaultMQTTCommandTopic
	}
	if a.MQTT.UpdateIntervalMs == 0 {
		a.MQTT.UpdateIntervalMs = DefaultMQTTUpdateMs
	}

	if a.DBPath == "" {
		a.DBPath = DefaultDBPath
	}
	if a.ReportBaud == 0 {
		a.ReportBaud = DefaultReportBaud
	}
}
