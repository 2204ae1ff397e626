package sacct

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2026-03-04T05:06:07")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Fatalf("Full timestamp: %v", ts)
	}
	// Seconds are optional
	ts, err = ParseTimestamp("2026-03-04T05:06")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)) {
		t.Fatalf("Minute timestamp: %v", ts)
	}
	// The time of day is optional
	ts, err = ParseTimestamp("2026-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Date timestamp: %v", ts)
	}
	// "Unknown" becomes now-ish
	before := time.Now().UTC().Add(-time.Minute)
	ts, err = ParseTimestamp("Unknown")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Before(before) || ts.After(time.Now().UTC().Add(time.Minute)) {
		t.Fatalf("Unknown timestamp: %v", ts)
	}
	if _, err = ParseTimestamp("yesterday"); err == nil {
		t.Fatal("Expected failure")
	}
}

func TestParseTimelapse(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
	}{
		{"03", 3 * time.Second},
		{"02:03", 2*time.Minute + 3*time.Second},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"2-01:02:03", 49*time.Hour + 2*time.Minute + 3*time.Second},
		{"01:02:03.500", time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond},
		{"", 0},
		{"UNLIMITED", DurationUnlimited},
		{"INVALID", 0},
		{"Partition_Limit", 0},
	}
	for _, c := range cases {
		got, err := ParseTimelapse(c.input)
		if err != nil {
			t.Fatalf("%q: %v", c.input, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %v want %v", c.input, got, c.want)
		}
	}
	if _, err := ParseTimelapse("1:2"); err == nil {
		t.Fatal("Expected failure on single-digit fields")
	}
	if _, err := ParseTimelapse("bogus"); err == nil {
		t.Fatal("Expected failure")
	}
}

func TestParseSize(t *testing.T) {
	if v := ParseSize("1024K"); v != 1024*1024 {
		t.Fatalf("K suffix: %g", v)
	}
	if v := ParseSize("2M"); v != 2*1024*1024 {
		t.Fatalf("M suffix: %g", v)
	}
	if v := ParseSize("1G"); v != 1024*1024*1024 {
		t.Fatalf("G suffix: %g", v)
	}
	if v := ParseSize("123"); v != 123 {
		t.Fatalf("No suffix: %g", v)
	}
	if v := ParseSize(""); v != 0 {
		t.Fatalf("Empty: %g", v)
	}
}

func TestAddDuration(t *testing.T) {
	if d := AddDuration(time.Second, time.Minute); d != 61*time.Second {
		t.Fatalf("Simple sum: %v", d)
	}
	if d := AddDuration(DurationUnlimited, time.Second); d != DurationUnlimited {
		t.Fatal("Unlimited should absorb")
	}
	if d := AddDuration(DurationUnlimited-time.Second, 2*time.Second); d != DurationUnlimited {
		t.Fatal("Overflow should clamp")
	}
}
