package obd2

import (
	"errors"
	"time"

	"github.com/serebryakov7/obd2-stats/internal/can"
)

// Значения по умолчанию для таймингов обмена.
const (
	DefaultTimeout = 100 * time.Millisecond
	DefaultBackoff = 5 * time.Millisecond
)

// ErrNoResponse - единственный вид ошибки обмена: подходящий ответ
// не получен в пределах таймаута. Ошибка отправки, полное отсутствие
// трафика и чужие ответы не различаются.
var ErrNoResponse = errors.New("obd2: нет ответа от ECU")

// Reader выполняет обмен запрос/ответ OBD-II поверх CAN транспорта.
// Обмены строго последовательные: один запрос полностью завершается
// (ответом или таймаутом) до начала следующего.
type Reader struct {
	tr      can.Transport
	clock   Clock
	timeout time.Duration
	backoff time.Duration
}

// NewReader создает Reader с заданными таймингами.
// Нулевые тайминги заменяются значениями по умолчанию.
func NewReader(tr can.Transport, clock Clock, timeout, backoff time.Duration) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Reader{tr: tr, clock: clock, timeout: timeout, backoff: backoff}
}

// Exchange отправляет запрос Mode 01 для pid и ждет подходящий ответ.
// Возвращает 5 байт полезной нагрузки (байты 3..7 ответа) либо ErrNoResponse.
func (r *Reader) Exchange(pid byte) ([payloadLen]byte, error) {
	var payload [payloadLen]byte

	// Ошибка постановки в очередь не отделяется от таймаута:
	// вызывающий в любом случае узнает о проблеме по ErrNoResponse.
	_ = r.tr.Send(BuildRequest(pid))

	start := r.clock.Now()
	for r.clock.Now().Sub(start) < r.timeout {
		if !r.tr.Available() {
			r.clock.Sleep(r.backoff)
			continue
		}

		frame, err := r.tr.Receive()
		if err != nil {
			// Транспорт мог закрыться под нами; дожидаемся таймаута.
			r.clock.Sleep(r.backoff)
			continue
		}

		if !accepts(frame, pid) {
			// Чужой кадр на общей шине - не ошибка, продолжаем ждать.
			continue
		}

		copy(payload[:], frame.Data[3:3+payloadLen])
		return payload, nil
	}

	return payload, ErrNoResponse
}

// accepts проверяет инвариант принятия ответа: идентификатор источника
// в диапазоне [0x7E8, 0x7EF], echoed mode равен 0x41, echoed PID равен
// запрошенному. Кадры короче 8 байт отбрасываются до разбора заголовка,
// чтобы извлечение фиксированного 5-байтового окна не вышло за границы.
func accepts(frame can.Frame, pid byte) bool {
	if frame.Len < can.MaxDataLen {
		return false
	}
	if frame.ID < ResponseIDMin || frame.ID > ResponseIDMax {
		return false
	}
	return frame.Data[1] == responseMode && frame.Data[2] == pid
}

// Read выполняет полный цикл для одного параметра: запрос, ожидание,
// декодирование. При отсутствии ответа возвращает ErrNoResponse;
// вызывающий подставляет сентинел параметра.
func (r *Reader) Read(p Parameter) (int, error) {
	payload, err := r.Exchange(p.PID)
	if err != nil {
		return p.Sentinel, err
	}
	return p.Decode(payload[:]), nil
}
