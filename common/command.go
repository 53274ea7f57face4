package common

// CommandType определяет тип команды от сервера.
type CommandType string

const (
	// CommandTypeRescanPIDs предписывает заново запросить у ECU маску
	// поддерживаемых PID (например, после замены блока управления).
	CommandTypeRescanPIDs CommandType = "rescan_pids"
	// Другие типы команд могут быть добавлены здесь
)

// ServerCommand представляет команду, полученную от сервера через MQTT.
type ServerCommand struct {
	Type CommandType `json:"type"`
}
