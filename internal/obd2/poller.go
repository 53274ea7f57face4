package obd2

import "log"

// Reporter получает результаты каждого цикла опроса.
type Reporter interface {
	Report(samples []Sample)
}

// Poller опрашивает параметры строго последовательно с фиксированным
// интервалом: один обмен полностью завершается (ответом или таймаутом)
// до начала следующего. Параллельных запросов в полете нет.
type Poller struct {
	reader    *Reader
	scheduler *Scheduler
	params    []Parameter
	snapshot  *Snapshot
	reporter  Reporter

	// Маска поддерживаемых PID 0x01..0x20. Пока маска неизвестна,
	// опрашиваются все параметры.
	mask      uint32
	maskKnown bool
	saveMask  func(mask uint32)

	rescanCh chan struct{}
}

// PollerConfig собирает зависимости Poller.
type PollerConfig struct {
	Reader    *Reader
	Scheduler *Scheduler
	Params    []Parameter
	Snapshot  *Snapshot
	Reporter  Reporter
	// SaveMask вызывается после успешного определения маски
	// поддерживаемых PID (может быть nil).
	SaveMask func(mask uint32)
}

// NewPoller создает Poller.
func NewPoller(cfg PollerConfig) *Poller {
	return &Poller{
		reader:    cfg.Reader,
		scheduler: cfg.Scheduler,
		params:    cfg.Params,
		snapshot:  cfg.Snapshot,
		reporter:  cfg.Reporter,
		saveMask:  cfg.SaveMask,
		rescanCh:  make(chan struct{}, 1),
	}
}

// ProbeCapabilities запрашивает у ECU маску поддерживаемых PID.
// При неудаче используется кешированная маска (cached=true), если она есть;
// иначе агент опрашивает все параметры.
func (p *Poller) ProbeCapabilities(cachedMask uint32, cached bool) {
	mask, err := p.reader.ProbeSupported()
	if err == nil {
		p.mask, p.maskKnown = mask, true
		log.Printf("Маска поддерживаемых PID 0x01-0x20: 0x%08X", mask)
		if p.saveMask != nil {
			p.saveMask(mask)
		}
		return
	}

	if cached {
		p.mask, p.maskKnown = cachedMask, true
		log.Printf("ECU не ответил на запрос маски PID, используется кешированная: 0x%08X", cachedMask)
		return
	}

	p.maskKnown = false
	log.Println("Маска поддерживаемых PID недоступна, опрашиваются все параметры.")
}

// RequestRescan просит повторить определение маски перед следующим циклом.
func (p *Poller) RequestRescan() {
	select {
	case p.rescanCh <- struct{}{}:
	default:
	}
}

// PollCycle выполняет один цикл опроса и возвращает его результаты.
// Неподдерживаемые параметры не запрашиваются и сразу помечаются
// недоступными. Отказ одного параметра не прерывает цикл.
func (p *Poller) PollCycle() []Sample {
	samples := make([]Sample, 0, len(p.params))
	for _, param := range p.params {
		sample := Sample{Name: param.Name, Unit: param.Unit}

		if p.maskKnown && !SupportsPID(p.mask, param.PID) {
			sample.Value = param.Sentinel
			samples = append(samples, sample)
			continue
		}

		value, err := p.reader.Read(param)
		sample.Value = value
		sample.OK = err == nil
		samples = append(samples, sample)
	}

	p.snapshot.Update(samples)
	if p.reporter != nil {
		p.reporter.Report(samples)
	}
	return samples
}

// Run крутит циклы опроса до закрытия stopCh.
func (p *Poller) Run(stopCh <-chan struct{}) {
	log.Println("Цикл опроса OBD-II запущен.")
	defer log.Println("Цикл опроса OBD-II остановлен.")

	for {
		p.scheduler.Wait()

		select {
		case <-stopCh:
			return
		case <-p.rescanCh:
			// Повторное определение маски по команде с сервера.
			p.ProbeCapabilities(p.mask, p.maskKnown)
		default:
		}

		p.PollCycle()
	}
}
