package tracker

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateRoundTrip(t *testing.T) {
	inputs := []string{"2025-01-01", "2024-02-29", "1999-12-31"}
	for _, in := range inputs {
		d, err := ParseDate(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := d.String(); got != in {
			t.Errorf("round trip %q: got %q", in, got)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	inputs := []string{"", "01-01-2025", "2025-13-01", "2025-02-30", "yesterday"}
	for _, in := range inputs {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestDateAddDays(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2025-01-01", 0, "2025-01-01"},
		{"2025-01-31", 1, "2025-02-01"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-02-28", 1, "2024-02-29"}, // leap year
		{"2025-01-01", -1, "2024-12-31"},
		{"2025-01-01", 30, "2025-01-31"},
	}

	for _, tt := range tests {
		d, err := ParseDate(tt.start)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := d.AddDays(tt.n).String(); got != tt.want {
			t.Errorf("%s + %d days: got %s, want %s", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2025, time.January, 31)
	b := NewDate(2025, time.February, 1)

	if !a.Before(b) {
		t.Error("Jan 31 should be before Feb 1")
	}
	if !b.After(a) {
		t.Error("Feb 1 should be after Jan 31")
	}
	if a.Before(a) || a.After(a) {
		t.Error("a date is neither before nor after itself")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.March, 7)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-03-07"` {
		t.Errorf("marshal: got %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("round trip: got %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"not-a-date"`), &back); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestClockRoundTrip(t *testing.T) {
	inputs := []string{"00:00:00", "08:30:00", "23:59:59"}
	for _, in := range inputs {
		c, err := ParseClock(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := c.String(); got != in {
			t.Errorf("round trip %q: got %q", in, got)
		}
	}
}

func TestParseClockInvalid(t *testing.T) {
	inputs := []string{"", "25:00:00", "12:60:00", "8:30", "noon"}
	for _, in := range inputs {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestClockJSON(t *testing.T) {
	c := Clock{Hour: 14, Minute: 5, Second: 9}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"14:05:09"` {
		t.Errorf("marshal: got %s", data)
	}

	var back Clock
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Errorf("round trip: got %v, want %v", back, c)
	}
}
