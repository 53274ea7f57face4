package obd2

import "github.com/serebryakov7/obd2-stats/internal/can"

// Адреса и константы OBD-II обмена по CAN (ISO 15765-4).
const (
	// RequestID - функциональный широковещательный идентификатор запроса.
	RequestID = 0x7DF
	// ResponseIDMin..ResponseIDMax - диапазон идентификаторов ответов ECU.
	ResponseIDMin = 0x7E8
	ResponseIDMax = 0x7EF

	// modeCurrentData - сервис 01 "Show current data".
	modeCurrentData = 0x01
	// responseMode - echoed mode в ответе: mode + 0x40.
	responseMode = modeCurrentData | 0x40

	// payloadLen - длина полезной нагрузки ответа (байты 3..7).
	payloadLen = 5
)

// BuildRequest формирует кадр запроса Mode 01 для заданного PID:
// [0x02, 0x01, pid, 0, 0, 0, 0, 0] на идентификатор 0x7DF.
// Байт 0 - число значимых байт, байт 1 - сервис, байт 2 - PID.
func BuildRequest(pid byte) can.Frame {
	return can.Frame{
		ID:   RequestID,
		Len:  can.MaxDataLen,
		Data: [8]byte{0x02, modeCurrentData, pid},
	}
}
