package obd2

import "time"

// Clock абстрагирует монотонное время и засыпание.
// Позволяет детерминированно тестировать таймауты и планировщик
// без реальных задержек.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock возвращает Clock на основе реального времени.
func SystemClock() Clock { return systemClock{} }
