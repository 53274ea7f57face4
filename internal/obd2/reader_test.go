package obd2

import (
	"errors"
	"testing"
	"time"

	"github.com/serebryakov7/obd2-stats/internal/can"
)

// fakeClock продвигает время только через Sleep - таймауты тестируются
// без реальных задержек.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// fakeTransport отдает заранее подготовленные кадры.
// delayPolls задает число пустых проверок Available до появления
// первого кадра. respond, если задан, генерирует ответы на Send.
type fakeTransport struct {
	sent       []can.Frame
	queue      []can.Frame
	delayPolls int
	respond    func(req can.Frame) []can.Frame
	sendErr    error
}

func (f *fakeTransport) Send(frame can.Frame) error {
	f.sent = append(f.sent, frame)
	if f.respond != nil {
		f.queue = append(f.queue, f.respond(frame)...)
	}
	return f.sendErr
}

func (f *fakeTransport) Available() bool {
	if f.delayPolls > 0 {
		f.delayPolls--
		return false
	}
	return len(f.queue) > 0
}

func (f *fakeTransport) Receive() (can.Frame, error) {
	if len(f.queue) == 0 {
		return can.Frame{}, can.ErrNoFrame
	}
	frame := f.queue[0]
	f.queue = f.queue[1:]
	return frame, nil
}

func (f *fakeTransport) Close() error { return nil }

func responseFrame(id uint32, pid byte, payload ...byte) can.Frame {
	frame := can.Frame{ID: id, Len: 8}
	frame.Data[0] = byte(2 + len(payload))
	frame.Data[1] = 0x41
	frame.Data[2] = pid
	copy(frame.Data[3:], payload)
	return frame
}

func newTestReader(tr can.Transport, clock Clock) *Reader {
	return NewReader(tr, clock, 100*time.Millisecond, 5*time.Millisecond)
}

func TestExchange_MatchingResponse(t *testing.T) {
	// Сценарий из ECU симулятора: запрос RPM, ответ 0x7E8 с A=0x07, B=0x10.
	tr := &fakeTransport{
		queue:      []can.Frame{responseFrame(0x7E8, PID_ENGINE_RPM, 0x07, 0x10)},
		delayPolls: 1, // кадр "приходит" после первой пустой проверки
	}
	r := newTestReader(tr, newFakeClock())

	payload, err := r.Exchange(PID_ENGINE_RPM)
	if err != nil {
		t.Fatalf("Exchange() err=%v", err)
	}
	if payload[0] != 0x07 || payload[1] != 0x10 {
		t.Fatalf("payload=% X, ожидается 07 10 ...", payload)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("отправлено %d кадров, ожидается 1", len(tr.sent))
	}
}

func TestExchange_Timeout(t *testing.T) {
	// Ответ не приходит вовсе: обмен завершается ErrNoResponse,
	// затраченное время в пределах [timeout, timeout+backoff).
	clock := newFakeClock()
	start := clock.Now()
	tr := &fakeTransport{}
	r := newTestReader(tr, clock)

	_, err := r.Exchange(PID_COOLANT_TEMP)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("err=%v, ожидается ErrNoResponse", err)
	}

	elapsed := clock.Now().Sub(start)
	if elapsed < 100*time.Millisecond {
		t.Fatalf("ожидание %v меньше таймаута", elapsed)
	}
	if elapsed >= 105*time.Millisecond {
		t.Fatalf("ожидание %v превышает таймаут более чем на backoff", elapsed)
	}
}

func TestExchange_AcceptanceInvariant(t *testing.T) {
	// Кадр принимается только при выполнении всех трех условий:
	// источник в [0x7E8, 0x7EF], mode 0x41, echoed PID.
	cases := []struct {
		name  string
		frame can.Frame
		match bool
	}{
		{"valid_7E8", responseFrame(0x7E8, PID_VEHICLE_SPEED, 0x3C), true},
		{"valid_7EF", responseFrame(0x7EF, PID_VEHICLE_SPEED, 0x3C), true},
		{"id_below_range", responseFrame(0x7E7, PID_VEHICLE_SPEED, 0x3C), false},
		{"id_above_range", responseFrame(0x7F0, PID_VEHICLE_SPEED, 0x3C), false},
		{"request_echo", responseFrame(0x7DF, PID_VEHICLE_SPEED, 0x3C), false},
		{"wrong_pid", responseFrame(0x7E8, PID_ENGINE_RPM, 0x3C), false},
		{"wrong_mode", func() can.Frame {
			f := responseFrame(0x7E8, PID_VEHICLE_SPEED, 0x3C)
			f.Data[1] = 0x01 // запрос, а не ответ
			return f
		}(), false},
		{"short_frame", func() can.Frame {
			f := responseFrame(0x7E8, PID_VEHICLE_SPEED, 0x3C)
			f.Len = 3 // усеченный кадр не должен совпадать
			return f
		}(), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransport{queue: []can.Frame{tc.frame}}
			r := newTestReader(tr, newFakeClock())

			_, err := r.Exchange(PID_VEHICLE_SPEED)
			if tc.match && err != nil {
				t.Fatalf("кадр должен быть принят, err=%v", err)
			}
			if !tc.match && !errors.Is(err, ErrNoResponse) {
				t.Fatalf("кадр должен быть отброшен, err=%v", err)
			}
		})
	}
}

func TestExchange_InterleavedTraffic(t *testing.T) {
	// Чужие кадры перед нужным не прерывают ожидание:
	// правильный ответ все равно принимается.
	tr := &fakeTransport{
		queue: []can.Frame{
			{ID: 0x280, Len: 8},                          // посторонний трафик шины
			responseFrame(0x7E8, PID_ENGINE_RPM, 0, 0),   // устаревший ответ на другой PID
			responseFrame(0x7E9, PID_COOLANT_TEMP, 0x55), // нужный ответ от второго ECU
		},
	}
	r := newTestReader(tr, newFakeClock())

	payload, err := r.Exchange(PID_COOLANT_TEMP)
	if err != nil {
		t.Fatalf("Exchange() err=%v", err)
	}
	if payload[0] != 0x55 {
		t.Fatalf("payload[0]=0x%02X, ожидается 0x55", payload[0])
	}
}

func TestExchange_SendErrorCollapsesToTimeout(t *testing.T) {
	// Ошибка отправки не различается: итог - тот же ErrNoResponse.
	tr := &fakeTransport{sendErr: errors.New("tx queue full")}
	r := newTestReader(tr, newFakeClock())

	_, err := r.Exchange(PID_ENGINE_LOAD)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("err=%v, ожидается ErrNoResponse", err)
	}
}

func TestRead_EndToEnd(t *testing.T) {
	// Запрос RPM -> кадр {id=0x7E8, data=[04 41 0C 07 10 ...]} -> 454 RPM.
	tr := &fakeTransport{
		respond: func(req can.Frame) []can.Frame {
			if req.ID != RequestID {
				t.Fatalf("запрос на id=0x%03X, ожидается 0x7DF", req.ID)
			}
			return []can.Frame{responseFrame(0x7E8, req.Data[2], 0x07, 0x10)}
		},
	}
	r := newTestReader(tr, newFakeClock())

	rpmParam, _ := ParameterByName("EngineRPM")
	value, err := r.Read(rpmParam)
	if err != nil {
		t.Fatalf("Read() err=%v", err)
	}
	if value != 454 {
		t.Fatalf("RPM=%d, ожидается 454", value)
	}
}

func TestRead_NoResponseReturnsSentinel(t *testing.T) {
	// Молчание ECU: значение - сентинел параметра, без зависания.
	tr := &fakeTransport{}
	r := newTestReader(tr, newFakeClock())

	coolant, _ := ParameterByName("CoolantTemp")
	value, err := r.Read(coolant)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("err=%v, ожидается ErrNoResponse", err)
	}
	if value != -999 {
		t.Fatalf("value=%d, ожидается сентинел -999", value)
	}
}
