package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotshuffle/internal/models"
	"github.com/desertthunder/spotshuffle/internal/shared"
)

// ErrRunNotFound is returned when no live run has the requested id.
var ErrRunNotFound = errors.New("shuffle run not found")

const shuffleRunColumns = `id, sequence, playlist_id, status, tracks_total, pages_fetched, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at`

// ShuffleRunRepository implements models.Repository[*models.ShuffleRun].
type ShuffleRunRepository struct {
	db *sql.DB
}

// NewShuffleRunRepository creates a new ShuffleRunRepository with the given database connection
func NewShuffleRunRepository(db *sql.DB) *ShuffleRunRepository {
	return &ShuffleRunRepository{db: db}
}

// Create inserts a run with a generated ID and the next sequence number
func (r *ShuffleRunRepository) Create(run *models.ShuffleRun) error {
	sequence, err := NextSequence(r.db, "shuffle_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO shuffle_runs (id, sequence, playlist_id, status, tracks_total, pages_fetched, error_message,
			started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.PlaylistID(),
		run.Status(),
		run.TracksTotal(),
		run.PagesFetched(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert shuffle run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *ShuffleRunRepository) Get(id string) (*models.ShuffleRun, error) {
	query := `SELECT ` + shuffleRunColumns + ` FROM shuffle_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Update writes the status, counts and timestamps of an existing run
func (r *ShuffleRunRepository) Update(run *models.ShuffleRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE shuffle_runs
		SET status = ?, tracks_total = ?, pages_fetched = ?, error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Status(),
		run.TracksTotal(),
		run.PagesFetched(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update shuffle run: %w", err)
	}

	return expectOneRow(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *ShuffleRunRepository) Delete(id string) error {
	query := `UPDATE shuffle_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete shuffle run: %w", err)
	}

	return expectOneRow(result, id)
}

// List retrieves live runs, newest first.
//
// Supported criteria: "playlist_id" (string), "status" (string), "limit" (int).
func (r *ShuffleRunRepository) List(criteria map[string]any) ([]*models.ShuffleRun, error) {
	query := `SELECT ` + shuffleRunColumns + ` FROM shuffle_runs WHERE deleted_at IS NULL`
	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shuffle runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ShuffleRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a [sql.Row] or the current [sql.Rows] row into a [models.ShuffleRun]
func scanRun(s scanner) (*models.ShuffleRun, error) {
	var (
		id           string
		sequence     int
		playlistID   string
		status       string
		tracksTotal  int
		pagesFetched int
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &playlistID, &status, &tracksTotal, &pagesFetched, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan shuffle run: %w", err)
	}

	run := models.NewShuffleRun(sequence, playlistID)
	run.SetID(id)
	run.SetStatus(status)
	run.SetTracksTotal(tracksTotal)
	run.SetPagesFetched(pagesFetched)
	run.SetErrorMessage(errorMessage.String)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if startedAt.Valid {
		run.SetStartedAt(&startedAt.Time)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", ErrRunNotFound, id)
	}
	return nil
}

var _ models.Repository[*models.ShuffleRun] = (*ShuffleRunRepository)(nil)
