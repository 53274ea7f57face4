package obd2

// DecodeFunc преобразует полезную нагрузку ответа (5 байт, начиная с байта
// после echoed PID) в физическую величину. Формулы стандартные для
// OBD-II Mode 01 (SAE J1979). Каждая функция тотальна над 5-байтовым срезом.
type DecodeFunc func(payload []byte) int

// DecodeEngineRPM: RPM = ((A*256) + B) / 4
func DecodeEngineRPM(payload []byte) int {
	return (int(payload[0])*256 + int(payload[1])) / 4
}

// DecodeVehicleSpeed: Speed = A (км/ч)
func DecodeVehicleSpeed(payload []byte) int {
	return int(payload[0])
}

// DecodeCoolantTemp: Temp = A - 40 (°C)
func DecodeCoolantTemp(payload []byte) int {
	return int(payload[0]) - 40
}

// DecodeThrottlePosition: Throttle = (A*100) / 255 (%)
func DecodeThrottlePosition(payload []byte) int {
	return int(payload[0]) * 100 / 255
}

// DecodeEngineLoad: Load = (A*100) / 255 (%)
func DecodeEngineLoad(payload []byte) int {
	return int(payload[0]) * 100 / 255
}

// DecodeIntakeTemp: Temp = A - 40 (°C)
func DecodeIntakeTemp(payload []byte) int {
	return int(payload[0]) - 40
}

// DecodeMAFFlow: MAF = ((A*256) + B) / 100 (г/с)
func DecodeMAFFlow(payload []byte) int {
	return (int(payload[0])*256 + int(payload[1])) / 100
}

// DecodeFuelPressure: Pressure = A * 3 (кПа)
func DecodeFuelPressure(payload []byte) int {
	return int(payload[0]) * 3
}
