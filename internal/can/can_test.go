package can

import (
	"bytes"
	"testing"
)

func TestFrame_BinaryRoundTrip(t *testing.T) {
	orig := Frame{ID: 0x7DF, Len: 8, Data: [8]byte{0x02, 0x01, 0x0C}}

	raw, err := orig.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() err=%v", err)
	}
	if len(raw) != FrameBinarySize {
		t.Fatalf("размер %d, ожидается %d", len(raw), FrameBinarySize)
	}

	var got Frame
	if err := got.UnmarshalBinary(raw); err != nil {
		t.Fatalf("UnmarshalBinary() err=%v", err)
	}
	if got != orig {
		t.Fatalf("got=%+v, ожидается %+v", got, orig)
	}
}

func TestFrame_MarshalLayout(t *testing.T) {
	// Формат struct can_frame: little-endian id, dlc, выравнивание, данные.
	f := Frame{ID: 0x7E8, Len: 8, Data: [8]byte{0x04, 0x41, 0x0C, 0x07, 0x10}}
	raw, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() err=%v", err)
	}

	want := []byte{
		0xE8, 0x07, 0x00, 0x00, // id
		0x08,                   // dlc
		0x00, 0x00, 0x00,       // выравнивание
		0x04, 0x41, 0x0C, 0x07, 0x10, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(raw, want) {
		t.Fatalf("raw=% X, ожидается % X", raw, want)
	}
}

func TestFrame_Validate(t *testing.T) {
	if err := (Frame{ID: 0x800, Len: 8}).Validate(); err != ErrInvalidID {
		t.Errorf("id вне диапазона: err=%v, ожидается ErrInvalidID", err)
	}
	if err := (Frame{ID: 0x100, Len: 9}).Validate(); err != ErrInvalidLen {
		t.Errorf("len вне диапазона: err=%v, ожидается ErrInvalidLen", err)
	}
	if err := (Frame{ID: 0x7FF, Len: 8}).Validate(); err != nil {
		t.Errorf("корректный кадр: err=%v", err)
	}
}

func TestFrame_UnmarshalRejectsFlags(t *testing.T) {
	// Кадры с флагами EFF/RTR для OBD-II не нужны и отбрасываются.
	f := Frame{ID: 0x100, Len: 0}
	raw, _ := f.MarshalBinary()
	raw[3] |= 0x80 // выставляем EFF флаг в старшем байте id

	var got Frame
	if err := got.UnmarshalBinary(raw); err == nil {
		t.Fatal("кадр с EFF флагом должен отбрасываться")
	}
}
