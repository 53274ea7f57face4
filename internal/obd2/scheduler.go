package obd2

import "time"

// DefaultCycleInterval - интервал цикла опроса по умолчанию.
const DefaultCycleInterval = 1000 * time.Millisecond

// Scheduler хранит момент следующего запуска цикла и продвигается
// по инжектированным часам. Если работа цикла превысила интервал,
// следующий цикл запускается немедленно, без компенсации пропусков.
type Scheduler struct {
	interval time.Duration
	next     time.Time
	clock    Clock
}

// NewScheduler создает планировщик; первый цикл считается наступившим сразу.
func NewScheduler(interval time.Duration, clock Clock) *Scheduler {
	if interval <= 0 {
		interval = DefaultCycleInterval
	}
	return &Scheduler{
		interval: interval,
		next:     clock.Now(),
		clock:    clock,
	}
}

// Interval возвращает интервал цикла.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Due сообщает, наступил ли момент следующего цикла.
func (s *Scheduler) Due(now time.Time) bool {
	return !now.Before(s.next)
}

// Advance фиксирует запуск цикла и назначает следующий момент от now,
// а не от прежнего next: опоздавшие циклы идут подряд, без наверстывания.
func (s *Scheduler) Advance(now time.Time) {
	s.next = now.Add(s.interval)
}

// Wait блокируется до момента следующего цикла и продвигает планировщик.
func (s *Scheduler) Wait() {
	now := s.clock.Now()
	if !s.Due(now) {
		s.clock.Sleep(s.next.Sub(now))
		now = s.clock.Now()
	}
	s.Advance(now)
}
