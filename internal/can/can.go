package can

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxDataLen - максимальная длина данных классического CAN кадра.
const MaxDataLen = 8

// Frame представляет классический CAN кадр со стандартным (11-бит) идентификатором.
// Расширенные идентификаторы и CAN FD не используются в OBD-II обмене.
type Frame struct {
	ID   uint32 // 11-битный идентификатор
	Len  uint8  // количество значимых байт данных (0..8)
	Data [8]byte
}

const maxStdID = 0x7FF

var (
	ErrInvalidID  = errors.New("can: некорректный идентификатор")
	ErrInvalidLen = errors.New("can: некорректная длина данных")
)

// Validate проверяет корректность кадра перед отправкой.
func (f Frame) Validate() error {
	if f.Len > MaxDataLen {
		return ErrInvalidLen
	}
	if f.ID > maxStdID {
		return ErrInvalidID
	}
	return nil
}

// Транспортные флаги и маски из linux/can.h (формат struct can_frame).
const (
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canStdMask = 0x7FF

	// FrameBinarySize - размер сериализованного кадра (struct can_frame).
	FrameBinarySize = 16
)

// MarshalBinary сериализует кадр в 16-байтовый формат struct can_frame
// (little-endian id, dlc, 3 байта выравнивания, 8 байт данных).
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, FrameBinarySize)
	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary разбирает кадр из формата struct can_frame.
// Кадры с флагами EFF/RTR не представляют интереса для OBD-II и отбрасываются.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < FrameBinarySize {
		return fmt.Errorf("can: ожидается %d байт, получено %d", FrameBinarySize, len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	if id&(canEffFlag|canRtrFlag) != 0 {
		return fmt.Errorf("can: кадр с флагами 0x%08X не поддерживается", id)
	}
	f.ID = id & canStdMask
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}

// Transport определяет интерфейс CAN транспорта для OBD-II обмена.
// Реализация может использовать фоновую горутину чтения, но методы
// Available и Receive не должны блокироваться.
type Transport interface {
	// Send отправляет кадр на шину.
	Send(frame Frame) error
	// Available сообщает, есть ли принятый кадр, без блокировки.
	Available() bool
	// Receive возвращает следующий принятый кадр. Вызывается только
	// после того, как Available вернул true.
	Receive() (Frame, error)
	// Close освобождает ресурсы транспорта.
	Close() error
}

// ErrClosed возвращается методами транспорта после закрытия.
var ErrClosed = errors.New("can: транспорт закрыт")

// ErrNoFrame возвращается Receive, если принятых кадров нет.
var ErrNoFrame = errors.New("can: нет принятых кадров")
