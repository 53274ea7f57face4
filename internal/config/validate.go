package config

import (
	"fmt"
	"strings"

	"github.com/serebryakov7/obd2-stats/internal/obd2"
)

// Validate проверяет корректность конфигурации.
// Конфигурация не изменяется; вызывается после Normalize.
func Validate(cfg Config) error {
	a := cfg.Agent

	switch a.Transport.Type {
	case "can", "slcan":
	default:
		return fmt.Errorf("config: неизвестный тип транспорта %q (ожидается can или slcan)", a.Transport.Type)
	}
	if a.Transport.Type == "can" && a.Transport.CANInterface == "" {
		return fmt.Errorf("config: для транспорта can требуется can_interface")
	}
	if a.Transport.Type == "slcan" {
		if a.Transport.SerialPort == "" {
			return fmt.Errorf("config: для транспорта slcan требуется serial_port")
		}
		if a.Transport.Baud <= 0 {
			return fmt.Errorf("config: для транспорта slcan требуется baud > 0")
		}
	}

	if a.Poll.CycleMs <= 0 {
		return fmt.Errorf("config: cycle_ms должен быть > 0")
	}
	if a.Poll.TimeoutMs <= 0 {
		return fmt.Errorf("config: timeout_ms должен быть > 0")
	}
	if a.Poll.BackoffMs <= 0 {
		return fmt.Errorf("config: backoff_ms должен быть > 0")
	}
	if a.Poll.BackoffMs >= a.Poll.TimeoutMs {
		return fmt.Errorf("config: backoff_ms (%d) должен быть меньше timeout_ms (%d)", a.Poll.BackoffMs, a.Poll.TimeoutMs)
	}

	if _, unknown := obd2.SelectParameters(a.Parameters); len(unknown) > 0 {
		return fmt.Errorf("config: неизвестные параметры: %s", strings.Join(unknown, ", "))
	}

	if a.MQTT.UpdateIntervalMs <= 0 {
		return fmt.Errorf("config: update_interval_ms должен быть > 0")
	}

	return nil
}
