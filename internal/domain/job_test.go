package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to VideoJobStatus
		want     bool
	}{
		{VideoJobStatusPending, VideoJobStatusProcessing, true},
		{VideoJobStatusProcessing, VideoJobStatusCompleted, true},
		{VideoJobStatusProcessing, VideoJobStatusFailed, true},
		{VideoJobStatusPending, VideoJobStatusCompleted, false},
		{VideoJobStatusPending, VideoJobStatusFailed, false},
		{VideoJobStatusProcessing, VideoJobStatusPending, false},
		{VideoJobStatusCompleted, VideoJobStatusProcessing, false},
		{VideoJobStatusCompleted, VideoJobStatusFailed, false},
		{VideoJobStatusFailed, VideoJobStatusCompleted, false},
		{VideoJobStatusFailed, VideoJobStatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if VideoJobStatusPending.Terminal() || VideoJobStatusProcessing.Terminal() {
		t.Fatal("pending/processing must not be terminal")
	}
	if !VideoJobStatusCompleted.Terminal() || !VideoJobStatusFailed.Terminal() {
		t.Fatal("completed/failed must be terminal")
	}
}
