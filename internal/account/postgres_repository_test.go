package account

import (
	"testing"
	"time"
)

func TestStoredTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 7, 14, 9, 30, 45, 123456000, time.FixedZone("La_Paz", -4*3600))

	out, err := parseStoredTime(formatStoredTime(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", out.Location())
	}
	if !out.Equal(in) {
		t.Fatalf("round trip drifted: %v vs %v", out, in)
	}
	if out.Hour() != 13 {
		t.Fatalf("expected 13h UTC, got %dh", out.Hour())
	}
}

func TestParseStoredTimeAcceptsOffsetlessValues(t *testing.T) {
	// Rows written before the service normalized offsets carry naive
	// timestamps that are already UTC.
	out, err := parseStoredTime("2026-07-14T09:30:45.123456")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 7, 14, 9, 30, 45, 123456000, time.UTC)
	if !out.Equal(want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestParseStoredTimeRejectsGarbage(t *testing.T) {
	if _, err := parseStoredTime("ayer a mediodía"); err == nil {
		t.Fatal("expected error")
	}
}
