// Package slcan реализует can.Transport поверх USB-serial CAN адаптера
// с протоколом Lawicel slcan (CANable, USBtin и совместимые).
package slcan

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"

	"github.com/serebryakov7/obd2-stats/internal/can"
)

const (
	// rxBufferSize - емкость буфера принятых кадров. При переполнении
	// новые кадры отбрасываются: для OBD-II обмена важен только ответ
	// на последний запрос.
	rxBufferSize = 64

	readTimeout = 100 * time.Millisecond
)

// Команды адаптера slcan.
const (
	cmdClose    = "C\r"
	cmdBitrate  = "S6\r" // 500 кбит/с - стандарт OBD-II
	cmdOpen     = "O\r"
	frameMarker = 't' // кадр данных со стандартным идентификатором
)

// Transport - CAN транспорт на основе slcan адаптера.
// Фоновая горутина читает порт и складывает кадры в буферизированный
// канал; Available и Receive не блокируются.
type Transport struct {
	port     *serial.Port
	frames   chan can.Frame
	stopChan chan struct{}
	closed   bool
}

// Open открывает последовательный порт и переводит адаптер в рабочий режим.
func Open(portName string, baud int) (*Transport, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        portName,
		Baud:        baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия порта %s: %w", portName, err)
	}

	// Закрываем канал на случай, если адаптер остался открытым,
	// затем задаем скорость и открываем заново.
	for _, cmd := range []string{cmdClose, cmdBitrate, cmdOpen} {
		if _, err := port.Write([]byte(cmd)); err != nil {
			port.Close()
			return nil, fmt.Errorf("ошибка инициализации slcan адаптера: %w", err)
		}
	}

	t := &Transport{
		port:     port,
		frames:   make(chan can.Frame, rxBufferSize),
		stopChan: make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// Send отправляет кадр через адаптер.
func (t *Transport) Send(frame can.Frame) error {
	if t.closed {
		return can.ErrClosed
	}
	line, err := FormatFrame(frame)
	if err != nil {
		return err
	}
	if _, err := t.port.Write([]byte(line)); err != nil {
		return fmt.Errorf("ошибка отправки кадра в порт: %w", err)
	}
	return nil
}

// Available сообщает, есть ли принятый кадр.
func (t *Transport) Available() bool {
	return len(t.frames) > 0
}

// Receive возвращает следующий принятый кадр без блокировки.
func (t *Transport) Receive() (can.Frame, error) {
	select {
	case frame, ok := <-t.frames:
		if !ok {
			return can.Frame{}, can.ErrClosed
		}
		return frame, nil
	default:
		return can.Frame{}, can.ErrNoFrame
	}
}

// Close переводит адаптер в закрытый режим и освобождает порт.
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.stopChan)
	t.port.Write([]byte(cmdClose))
	return t.port.Close()
}

// readLoop читает байты из порта, собирает строки до '\r' и разбирает
// их в кадры. Нечитаемые строки (статус адаптера, эхо команд)
// молча пропускаются.
func (t *Transport) readLoop() {
	buf := make([]byte, 128)
	var line []byte

	for {
		select {
		case <-t.stopChan:
			return
		default:
			n, err := t.port.Read(buf)
			if err != nil && err != io.EOF {
				select {
				case <-t.stopChan:
					return
				default:
				}
				log.Printf("Ошибка чтения порта slcan: %v", err)
				continue
			}

			for i := 0; i < n; i++ {
				b := buf[i]
				if b != '\r' && b != '\n' {
					line = append(line, b)
					continue
				}
				if len(line) == 0 {
					continue
				}
				if frame, ok := ParseLine(string(line)); ok {
					select {
					case t.frames <- frame:
					default:
						log.Printf("Буфер кадров slcan полон, кадр 0x%03X пропущен.", frame.ID)
					}
				}
				line = line[:0]
			}
		}
	}
}

// ParseLine разбирает строку slcan вида t<iii><l><dd...>.
// Интерес представляют только кадры данных со стандартным идентификатором;
// остальные типы строк возвращают ok=false.
func ParseLine(line string) (can.Frame, bool) {
	var frame can.Frame
	if len(line) < 5 || line[0] != frameMarker {
		return frame, false
	}

	id, ok := parseHex(line[1:4])
	if !ok || id > 0x7FF {
		return frame, false
	}

	dlc := int(line[4] - '0')
	if dlc < 0 || dlc > can.MaxDataLen {
		return frame, false
	}
	if len(line) != 5+dlc*2 {
		return frame, false
	}

	frame.ID = id
	frame.Len = uint8(dlc)
	for i := 0; i < dlc; i++ {
		b, ok := parseHex(line[5+i*2 : 7+i*2])
		if !ok {
			return can.Frame{}, false
		}
		frame.Data[i] = byte(b)
	}
	return frame, true
}

// FormatFrame сериализует кадр в строку slcan.
func FormatFrame(frame can.Frame) (string, error) {
	if err := frame.Validate(); err != nil {
		return "", err
	}
	line := fmt.Sprintf("t%03X%d", frame.ID, frame.Len)
	for i := uint8(0); i < frame.Len; i++ {
		line += fmt.Sprintf("%02X", frame.Data[i])
	}
	return line + "\r", nil
}

// parseHex разбирает шестнадцатеричную строку без знака.
func parseHex(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d uint32
		switch {
		case c >= '0' && c <= '9':
			d = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint32(c-'A') + 10
		default:
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}
