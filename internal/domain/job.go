package domain

import "time"

// VideoJobStatus enumerates video job lifecycle states.
type VideoJobStatus string

const (
	VideoJobStatusPending    VideoJobStatus = "pending"
	VideoJobStatusProcessing VideoJobStatus = "processing"
	VideoJobStatusCompleted  VideoJobStatus = "completed"
	VideoJobStatusFailed     VideoJobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted from s.
func (s VideoJobStatus) Terminal() bool {
	return s == VideoJobStatusCompleted || s == VideoJobStatusFailed
}

// Valid reports whether s is a known status value.
func (s VideoJobStatus) Valid() bool {
	switch s {
	case VideoJobStatusPending, VideoJobStatusProcessing, VideoJobStatusCompleted, VideoJobStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a job may move between the two statuses.
// Transitions are monotonic: pending -> processing -> {completed, failed}.
func CanTransition(from, to VideoJobStatus) bool {
	switch from {
	case VideoJobStatusPending:
		return to == VideoJobStatusProcessing
	case VideoJobStatusProcessing:
		return to == VideoJobStatusCompleted || to == VideoJobStatusFailed
	}
	return false
}

// VideoJob encapsulates one request to render a memorial video for a pet.
// Exactly one processor run owns a job's mutable fields; result and error
// fields follow the status (ResultURL set only on completed, ErrorReason
// only on failed) and Progress never decreases.
type VideoJob struct {
	ID              string
	OwnerID         string
	PetID           string
	Input           []byte // opaque generation parameters, immutable after submit
	Status          VideoJobStatus
	Progress        int
	ProviderTaskRef string
	ResultURL       string
	ErrorReason     string
	Metadata        []byte // raw provider payloads, kept for diagnostics only
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}
