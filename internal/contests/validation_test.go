package contests

import (
	"testing"
	"time"
)

func TestValidateDateRange(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		startsAt time.Time
		endsAt   time.Time
		creating bool
		wantErr  bool
	}{
		{
			name:     "valid future window",
			startsAt: now.Add(time.Hour),
			endsAt:   now.Add(48 * time.Hour),
			creating: true,
		},
		{
			name:     "already running window",
			startsAt: now.Add(-time.Hour),
			endsAt:   now.Add(time.Hour),
			creating: true,
		},
		{
			name:     "end before start",
			startsAt: now.Add(48 * time.Hour),
			endsAt:   now.Add(time.Hour),
			creating: true,
			wantErr:  true,
		},
		{
			name:     "end equals start",
			startsAt: now.Add(time.Hour),
			endsAt:   now.Add(time.Hour),
			creating: true,
			wantErr:  true,
		},
		{
			name:     "creating with end in the past",
			startsAt: now.Add(-48 * time.Hour),
			endsAt:   now.Add(-time.Hour),
			creating: true,
			wantErr:  true,
		},
		{
			name:     "updating an already ended contest",
			startsAt: now.Add(-48 * time.Hour),
			endsAt:   now.Add(-time.Hour),
			creating: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDateRange(tc.startsAt, tc.endsAt, now, tc.creating)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
