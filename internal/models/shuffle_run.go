package models

import (
	"fmt"
	"time"
)

// Shuffle run statuses.
const (
	RunPending   = "pending"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// ShuffleRun records one attempt to fetch and shuffle a playlist.
//
// It never holds credentials; only what is needed to show history.
type ShuffleRun struct {
	id           string
	sequence     int
	playlistID   string
	status       string
	tracksTotal  int
	pagesFetched int
	errorMessage string
	startedAt    *time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewShuffleRun creates a pending run for playlistID.
func NewShuffleRun(sequence int, playlistID string) *ShuffleRun {
	now := time.Now()
	return &ShuffleRun{
		sequence:   sequence,
		playlistID: playlistID,
		status:     RunPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *ShuffleRun) ID() string              { return r.id }
func (r *ShuffleRun) Sequence() int           { return r.sequence }
func (r *ShuffleRun) PlaylistID() string      { return r.playlistID }
func (r *ShuffleRun) Status() string          { return r.status }
func (r *ShuffleRun) TracksTotal() int        { return r.tracksTotal }
func (r *ShuffleRun) PagesFetched() int       { return r.pagesFetched }
func (r *ShuffleRun) ErrorMessage() string    { return r.errorMessage }
func (r *ShuffleRun) StartedAt() *time.Time   { return r.startedAt }
func (r *ShuffleRun) CompletedAt() *time.Time { return r.completedAt }
func (r *ShuffleRun) CreatedAt() time.Time    { return r.createdAt }
func (r *ShuffleRun) UpdatedAt() time.Time    { return r.updatedAt }
func (r *ShuffleRun) DeletedAt() *time.Time   { return r.deletedAt }

func (r *ShuffleRun) SetID(id string)             { r.id = id }
func (r *ShuffleRun) SetSequence(seq int)         { r.sequence = seq }
func (r *ShuffleRun) SetStatus(status string)     { r.status = status }
func (r *ShuffleRun) SetTracksTotal(n int)        { r.tracksTotal = n }
func (r *ShuffleRun) SetPagesFetched(n int)       { r.pagesFetched = n }
func (r *ShuffleRun) SetErrorMessage(msg string)  { r.errorMessage = msg }
func (r *ShuffleRun) SetStartedAt(t *time.Time)   { r.startedAt = t }
func (r *ShuffleRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *ShuffleRun) SetCreatedAt(t time.Time)    { r.createdAt = t }
func (r *ShuffleRun) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *ShuffleRun) SetDeletedAt(t *time.Time)   { r.deletedAt = t }

// Start marks the run as started now.
func (r *ShuffleRun) Start() {
	now := time.Now()
	r.startedAt = &now
}

// Complete marks the run as completed with the final counts.
func (r *ShuffleRun) Complete(total, pages int) {
	now := time.Now()
	r.status = RunCompleted
	r.tracksTotal = total
	r.pagesFetched = pages
	r.completedAt = &now
}

// Fail marks the run as failed with err's message.
func (r *ShuffleRun) Fail(err error, pages int) {
	now := time.Now()
	r.status = RunFailed
	r.pagesFetched = pages
	r.completedAt = &now
	if err != nil {
		r.errorMessage = err.Error()
	}
}

// Validate checks required fields and the status value.
func (r *ShuffleRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("id is required")
	}
	if r.playlistID == "" {
		return fmt.Errorf("playlist_id is required")
	}
	switch r.status {
	case RunPending, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid status: %q", r.status)
	}
	if r.tracksTotal < 0 || r.pagesFetched < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	return nil
}

var _ Model = (*ShuffleRun)(nil)
