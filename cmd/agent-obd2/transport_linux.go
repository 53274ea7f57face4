//go:build linux

package main

import (
	"fmt"

	"github.com/serebryakov7/obd2-stats/internal/can"
	"github.com/serebryakov7/obd2-stats/internal/can/slcan"
	"github.com/serebryakov7/obd2-stats/internal/can/socketcan"
	"github.com/serebryakov7/obd2-stats/internal/config"
)

// openTransport открывает CAN транспорт по конфигурации.
// На Linux доступны SocketCAN и slcan адаптер.
func openTransport(cfg config.TransportConfig) (can.Transport, error) {
	switch cfg.Type {
	case "can":
		return socketcan.Open(cfg.CANInterface)
	case "slcan":
		return slcan.Open(cfg.SerialPort, cfg.Baud)
	default:
		return nil, fmt.Errorf("неизвестный тип транспорта: %s", cfg.Type)
	}
}
