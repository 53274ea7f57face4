// Package report выводит результаты цикла опроса в текстовый канал:
// консоль либо последовательный порт внешнего дисплея.
package report

import (
	"fmt"
	"io"
	"log"

	"github.com/serebryakov7/obd2-stats/internal/obd2"
)

// TextReporter печатает значения параметров раз в цикл.
// Чистый вывод, обратной связи в опрос нет.
type TextReporter struct {
	w io.Writer
}

// NewTextReporter создает репортер поверх произвольного io.Writer.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

// Report выводит результаты одного цикла: значение с единицей измерения
// либо отметку READ FAILED для недоступного параметра.
func (r *TextReporter) Report(samples []obd2.Sample) {
	if _, err := fmt.Fprint(r.w, "--- Reading OBD-II Data ---\r\n"); err != nil {
		log.Printf("Ошибка записи отчета: %v", err)
		return
	}
	for _, s := range samples {
		if s.OK {
			fmt.Fprintf(r.w, "%s: %d %s\r\n", s.Name, s.Value, s.Unit)
		} else {
			fmt.Fprintf(r.w, "%s: READ FAILED\r\n", s.Name)
		}
	}
	fmt.Fprint(r.w, "\r\n")
}
