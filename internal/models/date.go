package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate: строка не является датой ни в одном из поддерживаемых форматов.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout: формат даты без времени, который присылает фронтенд.
const DateLayout = "2006-01-02"

// Date принимает в JSON как "2006-01-02", так и RFC 3339.
type Date struct {
	time.Time
}

// UnmarshalJSON разбирает дату в одном из поддерживаемых форматов.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: must be a string", ErrInvalidDate)
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w %q: expected YYYY-MM-DD or RFC 3339", ErrInvalidDate, s)
}

// MarshalJSON сериализует дату в RFC 3339.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// Ptr возвращает указатель на время или nil для пустой даты.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
