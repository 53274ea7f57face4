//go:build linux

// Package socketcan реализует can.Transport поверх сырого CAN_RAW сокета
// Linux (SocketCAN). Скорость шины (500 кбит/с для OBD-II) настраивается
// на уровне интерфейса (ip link), а не сокета.
package socketcan

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/serebryakov7/obd2-stats/internal/can"
)

// Transport - CAN транспорт на основе SocketCAN.
type Transport struct {
	fd         int
	ifaceName  string
	ifaceIndex int
}

// Open создает CAN_RAW сокет и привязывает его к интерфейсу.
// Ошибка здесь фатальна для агента: без шины дальнейшая работа невозможна.
func Open(ifaceName string) (*Transport, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать сокет CAN_RAW: %w", err)
	}

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("InterfaceByName %q: %w", ifaceName, err)
	}

	sa := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("не удалось привязать сокет CAN_RAW к %s: %w", ifaceName, err)
	}

	return &Transport{
		fd:         fd,
		ifaceName:  ifaceName,
		ifaceIndex: iface.Index,
	}, nil
}

// Send отправляет кадр на шину.
func (t *Transport) Send(frame can.Frame) error {
	if t.fd == -1 {
		return can.ErrClosed
	}
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := unix.Write(t.fd, buf); err != nil {
		return fmt.Errorf("ошибка отправки CAN кадра: %w", err)
	}
	return nil
}

// Available проверяет наличие принятого кадра без блокировки
// (poll с нулевым таймаутом).
func (t *Transport) Available() bool {
	if t.fd == -1 {
		return false
	}
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		return false
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0
}

// Receive читает один кадр из сокета. Вызывается после Available.
func (t *Transport) Receive() (can.Frame, error) {
	var frame can.Frame
	if t.fd == -1 {
		return frame, can.ErrClosed
	}

	buf := make([]byte, can.FrameBinarySize)
	n, err := unix.Read(t.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return frame, can.ErrNoFrame
		}
		return frame, fmt.Errorf("ошибка чтения CAN кадра: %w", err)
	}
	if n < can.FrameBinarySize {
		return frame, fmt.Errorf("короткое чтение CAN кадра: %d байт", n)
	}

	if err := frame.UnmarshalBinary(buf); err != nil {
		return frame, err
	}
	return frame, nil
}

// Close закрывает сокет.
func (t *Transport) Close() error {
	if t.fd == -1 {
		return nil
	}
	err := unix.Close(t.fd)
	t.fd = -1
	return err
}
