package obd2

// Capability probe: Mode 01 PID 0x00 возвращает битовую маску поддержки
// PID 0x01..0x20 (байты A..D, старший бит A соответствует PID 0x01).
// Опрос заведомо неподдерживаемого параметра стоит полный таймаут каждый
// цикл, поэтому агент один раз выясняет маску и пропускает такие параметры.

// ProbeSupported запрашивает у ECU маску поддерживаемых PID 0x01..0x20.
func (r *Reader) ProbeSupported() (uint32, error) {
	payload, err := r.Exchange(PID_SUPPORTED_01_20)
	if err != nil {
		return 0, err
	}
	mask := uint32(payload[0])<<24 |
		uint32(payload[1])<<16 |
		uint32(payload[2])<<8 |
		uint32(payload[3])
	return mask, nil
}

// SupportsPID проверяет PID по маске. PID 0x00 поддерживается всегда;
// PID вне диапазона 0x01..0x20 маской не покрываются и считаются
// поддерживаемыми (решение в пользу опроса).
func SupportsPID(mask uint32, pid byte) bool {
	if pid == PID_SUPPORTED_01_20 {
		return true
	}
	if pid > 0x20 {
		return true
	}
	return mask>>(32-uint(pid))&1 == 1
}
