//go:build !linux

package main

import (
	"fmt"

	"github.com/serebryakov7/obd2-stats/internal/can"
	"github.com/serebryakov7/obd2-stats/internal/can/slcan"
	"github.com/serebryakov7/obd2-stats/internal/config"
)

// openTransport открывает CAN транспорт по конфигурации.
// Вне Linux доступен только slcan адаптер (SocketCAN отсутствует).
func openTransport(cfg config.TransportConfig) (can.Transport, error) {
	switch cfg.Type {
	case "slcan":
		return slcan.Open(cfg.SerialPort, cfg.Baud)
	case "can":
		return nil, fmt.Errorf("транспорт can (SocketCAN) доступен только на Linux")
	default:
		return nil, fmt.Errorf("неизвестный тип транспорта: %s", cfg.Type)
	}
}
