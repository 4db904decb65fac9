package date

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-06-01", time.Date(2025, 5, 31, 22, 0, 0, 0, time.UTC)},
		{"2025-06-01T09:30", time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)},
		{"2025-06-01 09:30", time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)},
		{"2025-06-01T09:30:00Z", time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, berlin)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2025-13-01"} {
		if _, err := Parse(in, time.UTC); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestHuman(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC)
	if got := Human(ts, time.UTC); got != "1/2/2025, 3:04:05 PM" {
		t.Errorf("Human = %q", got)
	}
}

func TestShort(t *testing.T) {
	midnight := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := Short(midnight, time.UTC); got != "2025-01-02" {
		t.Errorf("Short(midnight) = %q", got)
	}
	if got := Short(midnight.Add(90*time.Minute), time.UTC); got != "2025-01-02 01:30" {
		t.Errorf("Short = %q", got)
	}
}
