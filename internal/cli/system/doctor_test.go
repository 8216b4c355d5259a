package system

import (
	"strings"
	"testing"
	"time"
)

func TestCompareSchema(t *testing.T) {
	if err := compareSchema(4, 4); err != nil {
		t.Errorf("expected current schema to pass, got %v", err)
	}
	if err := compareSchema(3, 4); err == nil || !strings.Contains(err.Error(), "behind") {
		t.Errorf("expected behind error, got %v", err)
	}
	if err := compareSchema(9, 4); err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("expected newer error, got %v", err)
	}
}

func TestCheckClockTimezone(t *testing.T) {
	if err := checkClockTimezone(time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := checkClockTimezone(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected error for a clock in 1999")
	}
}
