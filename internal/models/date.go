package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Date принимает из JSON как полную метку времени RFC 3339, так и дату вида 2006-01-02.
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
		return fmt.Errorf("date must be a string: %w", err)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as date", s)
}

// MarshalJSON выводит дату в RFC 3339.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

// Ptr возвращает *time.Time или nil для nil-даты.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
