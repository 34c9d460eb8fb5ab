package domain

import (
	"testing"
	"time"
)

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want Period
	}{
		{
			name: "plain utc instant",
			now:  time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
			want: Period{Year: 2025, Month: time.March},
		},
		{
			name: "local zone ahead of utc stays in previous month",
			now:  time.Date(2025, time.April, 1, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*3600)),
			want: Period{Year: 2025, Month: time.March},
		},
		{
			name: "last instant of month",
			now:  time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC),
			want: Period{Year: 2025, Month: time.June},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.now); got != tt.want {
				t.Fatalf("PeriodOf(%v) = %+v, want %+v", tt.now, got, tt.want)
			}
		})
	}
}

func TestPeriodNextReset(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		want   time.Time
	}{
		{
			name:   "mid year",
			period: Period{Year: 2025, Month: time.March},
			want:   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "december rolls into next year",
			period: Period{Year: 2025, Month: time.December},
			want:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.NextReset(); !got.Equal(tt.want) {
				t.Fatalf("NextReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusCompleted, TaskStatusCompletedFallback, TaskStatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusRunning} {
		if s.Terminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}
