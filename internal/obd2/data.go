package obd2

import (
	"encoding/json"
	"sync"
	"time"
)

// Sample - результат одного обмена для одного параметра.
// Образец живет один цикл опроса и перезаписывается следующим.
type Sample struct {
	Name  string
	Unit  string
	Value int
	OK    bool
}

// Snapshot хранит результаты последнего цикла опроса под мьютексом.
// Снимок сериализуется в JSON для публикации: значение параметра либо
// null, если ответ не был получен.
type Snapshot struct {
	mutex   sync.RWMutex
	samples map[string]Sample
}

// NewSnapshot создает пустой снимок.
func NewSnapshot() *Snapshot {
	return &Snapshot{samples: make(map[string]Sample)}
}

// Update заменяет содержимое снимка результатами цикла.
func (s *Snapshot) Update(samples []Sample) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, smp := range samples {
		s.samples[smp.Name] = smp
	}
}

// Get возвращает образец параметра по имени.
func (s *Snapshot) Get(name string) (Sample, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	smp, ok := s.samples[name]
	return smp, ok
}

// MarshalJSON сериализует снимок с временной меткой.
// Недоступные параметры выводятся как null, а не как сентинелы:
// сентинелы - контракт текстового отчета, не JSON.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[string]any, len(s.samples)+1)
	for name, smp := range s.samples {
		if !smp.OK {
			out[name] = nil
			continue
		}
		out[name] = map[string]any{
			"value": smp.Value,
			"unit":  smp.Unit,
		}
	}
	out["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// Copy возвращает json.Marshaler над копией данных, чтобы не держать
// блокировку на время сериализации и отправки.
func (s *Snapshot) Copy() json.Marshaler {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	copied := make(map[string]Sample, len(s.samples))
	for name, smp := range s.samples {
		copied[name] = smp
	}
	return &snapshotCopy{samples: copied}
}

type snapshotCopy struct {
	samples map[string]Sample
}

func (c *snapshotCopy) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.samples)+1)
	for name, smp := range c.samples {
		if !smp.OK {
			out[name] = nil
			continue
		}
		out[name] = map[string]any{
			"value": smp.Value,
			"unit":  smp.Unit,
		}
	}
	out["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}
