package repositories

import (
	"database/sql"

	"github.com/desertthunder/spotshuffle/internal/models"
)

// RunRecorder writes the lifecycle of a shuffle to [ShuffleRunRepository].
type RunRecorder struct {
	repo *ShuffleRunRepository
}

// NewRunRecorder creates a recorder backed by db.
func NewRunRecorder(db *sql.DB) *RunRecorder {
	return &RunRecorder{repo: NewShuffleRunRepository(db)}
}

// Begin inserts a started, pending run.
func (r *RunRecorder) Begin(playlistID string) (*models.ShuffleRun, error) {
	run := models.NewShuffleRun(0, playlistID)
	run.Start()
	if err := r.repo.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Finish marks run completed with its counts, or failed with err.
func (r *RunRecorder) Finish(run *models.ShuffleRun, total, pages int, err error) error {
	if err != nil {
		run.Fail(err, pages)
	} else {
		run.Complete(total, pages)
	}
	return r.repo.Update(run)
}
