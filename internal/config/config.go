// Package config загружает настройки агента из YAML файла.
// Флаги командной строки перекрывают значения из файла.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

type AgentConfig struct {
	Transport  TransportConfig `yaml:"transport"`
	Poll       PollConfig      `yaml:"poll"`
	Parameters []string        `yaml:"parameters"`
	MQTT       MQTTConfig      `yaml:"mqtt"`
	DBPath     string          `yaml:"db_path"`

	// Последовательный порт внешнего дисплея (опционально).
	// Пустое значение - отчет в stdout.
	ReportPort string `yaml:"report_port"`
	ReportBaud int    `yaml:"report_baud"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	// Type - "can" (SocketCAN) или "slcan" (USB-serial адаптер).
	Type         string `yaml:"type"`
	CANInterface string `yaml:"can_interface"`
	SerialPort   string `yaml:"serial_port"`
	Baud         int    `yaml:"baud"`
}

// ---- POLL TIMING ----

type PollConfig struct {
	CycleMs   int `yaml:"cycle_ms"`   // интервал цикла опроса
	TimeoutMs int `yaml:"timeout_ms"` // таймаут ожидания ответа
	BackoffMs int `yaml:"backoff_ms"` // пауза между проверками транспорта
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker           string `yaml:"broker"`
	Topic            string `yaml:"topic"`
	CommandTopic     string `yaml:"command_topic"`
	UpdateIntervalMs int    `yaml:"update_interval_ms"`
}

// Load читает и разбирает файл конфигурации, применяет значения
// по умолчанию и проверяет результат.
func Load(path string) (Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: чтение %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: разбор %s: %w", path, err)
	}

	Normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default возвращает конфигурацию по умолчанию (без файла).
func Default() Config {
	var cfg Config
	Normalize(&cfg)
	return cfg
}
