package obd2

import (
	"strings"
	"testing"
	"time"

	"github.com/serebryakov7/obd2-stats/internal/can"
)

type captureReporter struct {
	cycles [][]Sample
}

func (r *captureReporter) Report(samples []Sample) {
	r.cycles = append(r.cycles, samples)
}

// ecuResponder отвечает на запросы известных PID и молчит про остальные.
func ecuResponder(values map[byte][]byte) func(req can.Frame) []can.Frame {
	return func(req can.Frame) []can.Frame {
		payload, ok := values[req.Data[2]]
		if !ok {
			return nil
		}
		return []can.Frame{responseFrame(0x7E8, req.Data[2], payload...)}
	}
}

func newTestPoller(tr can.Transport, clock Clock, names []string, reporter Reporter) *Poller {
	params, _ := SelectParameters(names)
	return NewPoller(PollerConfig{
		Reader:    NewReader(tr, clock, 100*time.Millisecond, 5*time.Millisecond),
		Scheduler: NewScheduler(time.Second, clock),
		Params:    params,
		Snapshot:  NewSnapshot(),
		Reporter:  reporter,
	})
}

func TestPollCycle_MixedResults(t *testing.T) {
	// RPM и скорость отвечают, охлаждающая жидкость молчит:
	// отказ одного параметра не прерывает цикл, значение - сентинел.
	tr := &fakeTransport{
		respond: ecuResponder(map[byte][]byte{
			PID_ENGINE_RPM:    {0x07, 0x10},
			PID_VEHICLE_SPEED: {0x3C},
		}),
	}
	reporter := &captureReporter{}
	p := newTestPoller(tr, newFakeClock(), []string{"EngineRPM", "VehicleSpeed", "CoolantTemp"}, reporter)

	samples := p.PollCycle()
	if len(samples) != 3 {
		t.Fatalf("получено %d образцов, ожидается 3", len(samples))
	}

	if !samples[0].OK || samples[0].Value != 454 {
		t.Errorf("EngineRPM: %+v, ожидается 454 OK", samples[0])
	}
	if !samples[1].OK || samples[1].Value != 60 {
		t.Errorf("VehicleSpeed: %+v, ожидается 60 OK", samples[1])
	}
	if samples[2].OK || samples[2].Value != -999 {
		t.Errorf("CoolantTemp: %+v, ожидается сентинел -999", samples[2])
	}

	if len(reporter.cycles) != 1 {
		t.Fatalf("репортер вызван %d раз, ожидается 1", len(reporter.cycles))
	}
}

func TestPollCycle_SequentialRequests(t *testing.T) {
	// Параметры запрашиваются строго последовательно, по одному
	// запросу на параметр за цикл, без повторов.
	tr := &fakeTransport{
		respond: ecuResponder(map[byte][]byte{
			PID_ENGINE_RPM:    {0, 0},
			PID_VEHICLE_SPEED: {0},
			PID_COOLANT_TEMP:  {0x55},
		}),
	}
	p := newTestPoller(tr, newFakeClock(), []string{"EngineRPM", "VehicleSpeed", "CoolantTemp"}, nil)

	p.PollCycle()

	wantOrder := []byte{PID_ENGINE_RPM, PID_VEHICLE_SPEED, PID_COOLANT_TEMP}
	if len(tr.sent) != len(wantOrder) {
		t.Fatalf("отправлено %d запросов, ожидается %d", len(tr.sent), len(wantOrder))
	}
	for i, pid := range wantOrder {
		if tr.sent[i].Data[2] != pid {
			t.Errorf("запрос %d: PID 0x%02X, ожидается 0x%02X", i, tr.sent[i].Data[2], pid)
		}
	}
}

func TestPollCycle_SkipsUnsupportedPIDs(t *testing.T) {
	// Известная маска: неподдерживаемый параметр не запрашивается
	// и сразу помечается недоступным.
	tr := &fakeTransport{
		respond: ecuResponder(map[byte][]byte{
			PID_ENGINE_RPM: {0x07, 0x10},
		}),
	}
	p := newTestPoller(tr, newFakeClock(), []string{"EngineRPM", "FuelPressure"}, nil)

	// Зонд не отвечает, используется кешированная маска:
	// поддержан только PID 0x0C.
	var mask uint32 = 1 << (32 - PID_ENGINE_RPM)
	p.ProbeCapabilities(mask, true)

	samples := p.PollCycle()

	if !samples[0].OK || samples[0].Value != 454 {
		t.Errorf("EngineRPM: %+v, ожидается 454 OK", samples[0])
	}
	if samples[1].OK || samples[1].Value != -1 {
		t.Errorf("FuelPressure: %+v, ожидается сентинел -1 без запроса", samples[1])
	}

	for _, frame := range tr.sent {
		if frame.Data[2] == PID_FUEL_PRESSURE {
			t.Fatalf("неподдерживаемый PID 0x0A был запрошен")
		}
	}
}

func TestProbeCapabilities_SavesMask(t *testing.T) {
	tr := &fakeTransport{
		respond: ecuResponder(map[byte][]byte{
			PID_SUPPORTED_01_20: {0xBE, 0x1F, 0xA8, 0x13},
		}),
	}
	var saved uint32
	params, _ := SelectParameters(DefaultParameterNames)
	p := NewPoller(PollerConfig{
		Reader:    NewReader(tr, newFakeClock(), 100*time.Millisecond, 5*time.Millisecond),
		Scheduler: NewScheduler(time.Second, newFakeClock()),
		Params:    params,
		Snapshot:  NewSnapshot(),
		SaveMask:  func(mask uint32) { saved = mask },
	})

	p.ProbeCapabilities(0, false)
	if saved != 0xBE1FA813 {
		t.Fatalf("сохранена маска 0x%08X, ожидается 0xBE1FA813", saved)
	}
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	s := NewSnapshot()
	s.Update([]Sample{
		{Name: "EngineRPM", Unit: "RPM", Value: 454, OK: true},
		{Name: "CoolantTemp", Unit: "°C", Value: -999, OK: false},
	})

	raw, err := s.Copy().MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() err=%v", err)
	}
	got := string(raw)

	for _, want := range []string{`"EngineRPM":{`, `"value":454`, `"CoolantTemp":null`, `"timestamp"`} {
		if !strings.Contains(got, want) {
			t.Errorf("в JSON %s отсутствует %s", got, want)
		}
	}
}
