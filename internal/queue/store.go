package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ansci/internal/config"
	"ansci/internal/quality"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases must be cleared afterwards.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by a different
// schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrInvalidTransition indicates a scene status update would skip or
// reverse a pipeline stage.
var ErrInvalidTransition = errors.New("invalid scene transition")

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the jobs database under the configured
// log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// NewJob inserts a pending job and returns it.
func (s *Store) NewJob(ctx context.Context, title, scope, splitMode string, groups int) (*Job, error) {
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, scope, split_mode, groups_n, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, title, scope, splitMode, groups, JobPending, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetJob(ctx, id)
}

const jobColumns = "id, title, scope, split_mode, groups_n, status, error_msg, report_json, created_at, updated_at"

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var job Job
	var createdAt, updatedAt string
	if err := row.Scan(&job.ID, &job.Title, &job.Scope, &job.SplitMode, &job.Groups,
		&job.Status, &job.ErrorMsg, &job.ReportJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &job, nil
}

// GetJob fetches a job by identifier, nil when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs newest first.
func (s *Store) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobStatus moves a job to status, recording the error message for
// failed jobs.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errorMsg string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_msg = ?, updated_at = ? WHERE id = ?`,
		status, errorMsg, timestamp, id,
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return requireRow(res, "job", id)
}

// SetJobReport stores the final quality report JSON on the job.
func (s *Store) SetJobReport(ctx context.Context, id, reportJSON string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET report_json = ?, updated_at = ? WHERE id = ?`,
		reportJSON, timestamp, id,
	)
	if err != nil {
		return fmt.Errorf("set job report: %w", err)
	}
	return requireRow(res, "job", id)
}

// InsertScenes creates pending scene rows for each title, in order.
func (s *Store) InsertScenes(ctx context.Context, jobID string, titles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scenes tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for i, title := range titles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenes (job_id, idx, title, status, flag, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			jobID, i, title, ScenePending, quality.OK, timestamp,
		); err != nil {
			return fmt.Errorf("insert scene %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const sceneColumns = "job_id, idx, title, status, flag, clip_path, audio_path, synced_path, clip_seconds, audio_seconds, final_seconds, updated_at"

func scanScene(row interface{ Scan(...any) error }) (*Scene, error) {
	var scene Scene
	var updatedAt string
	if err := row.Scan(&scene.JobID, &scene.Index, &scene.Title, &scene.Status, &scene.Flag,
		&scene.ClipPath, &scene.AudioPath, &scene.SyncedPath,
		&scene.ClipSeconds, &scene.AudioSeconds, &scene.FinalSeconds, &updatedAt); err != nil {
		return nil, err
	}
	scene.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &scene, nil
}

// Scenes returns a job's scenes in outline order.
func (s *Store) Scenes(ctx context.Context, jobID string) ([]*Scene, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE job_id = ? ORDER BY idx`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var scenes []*Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}
	return scenes, nil
}

// TransitionScene advances a scene to the next status. The move is checked
// against the chain inside the update transaction.
func (s *Store) TransitionScene(ctx context.Context, jobID string, index int, to SceneStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current SceneStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM scenes WHERE job_id = ? AND idx = ?`, jobID, index,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("scene %d of job %s not found", index, jobID)
	}
	if err != nil {
		return fmt.Errorf("read scene status: %w", err)
	}
	if !CanTransition(current, to) {
		return fmt.Errorf("%w: scene %d cannot move %s -> %s", ErrInvalidTransition, index, current, to)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`UPDATE scenes SET status = ?, updated_at = ? WHERE job_id = ? AND idx = ?`,
		to, timestamp, jobID, index,
	); err != nil {
		return fmt.Errorf("update scene status: %w", err)
	}
	return tx.Commit()
}

// SceneArtifacts records artifact paths and durations as stages complete.
// Zero values leave the stored column untouched.
type SceneArtifacts struct {
	ClipPath     string
	AudioPath    string
	SyncedPath   string
	ClipSeconds  float64
	AudioSeconds float64
	FinalSeconds float64
}

// UpdateSceneArtifacts merges artifact fields into the scene row.
func (s *Store) UpdateSceneArtifacts(ctx context.Context, jobID string, index int, artifacts SceneArtifacts) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE scenes SET
            clip_path     = CASE WHEN ? != '' THEN ? ELSE clip_path END,
            audio_path    = CASE WHEN ? != '' THEN ? ELSE audio_path END,
            synced_path   = CASE WHEN ? != '' THEN ? ELSE synced_path END,
            clip_seconds  = CASE WHEN ? > 0 THEN ? ELSE clip_seconds END,
            audio_seconds = CASE WHEN ? > 0 THEN ? ELSE audio_seconds END,
            final_seconds = CASE WHEN ? > 0 THEN ? ELSE final_seconds END,
            updated_at = ?
         WHERE job_id = ? AND idx = ?`,
		artifacts.ClipPath, artifacts.ClipPath,
		artifacts.AudioPath, artifacts.AudioPath,
		artifacts.SyncedPath, artifacts.SyncedPath,
		artifacts.ClipSeconds, artifacts.ClipSeconds,
		artifacts.AudioSeconds, artifacts.AudioSeconds,
		artifacts.FinalSeconds, artifacts.FinalSeconds,
		timestamp, jobID, index,
	)
	if err != nil {
		return fmt.Errorf("update scene artifacts: %w", err)
	}
	return requireRow(res, "scene", fmt.Sprintf("%s/%d", jobID, index))
}

// SetSceneFlag records the scene's quality flag.
func (s *Store) SetSceneFlag(ctx context.Context, jobID string, index int, flag quality.Flag) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE scenes SET flag = ?, updated_at = ? WHERE job_id = ? AND idx = ?`,
		flag, timestamp, jobID, index,
	)
	if err != nil {
		return fmt.Errorf("set scene flag: %w", err)
	}
	return requireRow(res, "scene", fmt.Sprintf("%s/%d", jobID, index))
}

// DeleteJob removes a job and, via the foreign key, its scenes.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}
