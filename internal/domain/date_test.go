package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDay(t *testing.T) {
	in := time.Date(2024, time.January, 3, 23, 59, 0, 0, time.UTC)
	got := Day(in)

	if !got.Equal(NewDate(2024, time.January, 3)) {
		t.Fatalf("expected midnight of the same day, got %s", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2024, time.February, 29)) {
		t.Fatalf("unexpected date %s", d)
	}

	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Fatal("expected error for wrong format")
	}
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2024, time.January, 1)
	b := time.Date(2024, time.February, 15, 18, 30, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 45 {
		t.Fatalf("expected 45 days, got %d", got)
	}
}

func TestDateRange(t *testing.T) {
	r, err := NewDateRange(NewDate(2024, time.January, 1), NewDate(2024, time.January, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.Contains(NewDate(2024, time.January, 31)) {
		t.Error("end bound must be inclusive")
	}
	if r.Contains(NewDate(2024, time.February, 1)) {
		t.Error("day after end must be excluded")
	}

	_, err = NewDateRange(NewDate(2024, time.February, 1), NewDate(2024, time.January, 1))
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestVehicle_LabelPrefix(t *testing.T) {
	v := &Vehicle{Number: " mh12-4455 "}

	if got := v.LabelPrefix(4); got != "MH12" {
		t.Fatalf("expected MH12, got %q", got)
	}
	if got := v.LabelPrefix(50); got != "MH12-4455" {
		t.Fatalf("expected whole label, got %q", got)
	}
}
