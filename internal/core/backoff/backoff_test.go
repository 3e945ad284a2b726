package backoff

import (
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	p := Policy{Base: 5 * time.Second, Cap: 1 * time.Minute}

	tests := []struct {
		name     string
		attempts int
		want     time.Duration
	}{
		{name: "no attempts yet", attempts: 0, want: 0},
		{name: "first failure", attempts: 1, want: 5 * time.Second},
		{name: "second failure doubles", attempts: 2, want: 10 * time.Second},
		{name: "third failure doubles again", attempts: 3, want: 20 * time.Second},
		{name: "capped", attempts: 10, want: 1 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Delay(tt.attempts); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempts, got, tt.want)
			}
		})
	}
}

func TestDelayDisabled(t *testing.T) {
	p := Policy{Base: 0, Cap: time.Minute}
	if got := p.Delay(7); got != 0 {
		t.Errorf("Delay with zero base = %v, want 0", got)
	}
}

func TestDelayLargeAttemptsDoesNotOverflow(t *testing.T) {
	p := Policy{Base: time.Second, Cap: time.Hour}
	if got := p.Delay(200); got != time.Hour {
		t.Errorf("Delay(200) = %v, want cap", got)
	}
}

func TestReady(t *testing.T) {
	p := Policy{Base: 10 * time.Second, Cap: time.Minute}
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		last     time.Time
		attempts int
		want     bool
	}{
		{name: "never attempted", now: last, attempts: 0, want: true},
		{name: "zero last attempt", now: last, last: time.Time{}, attempts: 3, want: true},
		{name: "inside window", now: last.Add(4 * time.Second), last: last, attempts: 1, want: false},
		{name: "exactly due", now: last.Add(10 * time.Second), last: last, attempts: 1, want: true},
		{name: "past due", now: last.Add(time.Hour), last: last, attempts: 5, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Ready(tt.now, tt.last, tt.attempts); got != tt.want {
				t.Errorf("Ready = %v, want %v", got, tt.want)
			}
		})
	}
}
