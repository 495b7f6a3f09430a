// Package catalog persists the editor's media probe cache, import history
// and configuration values in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	GetMedia(ctx context.Context, path string) (*MediaEntry, error)
	UpsertMedia(ctx context.Context, entry *MediaEntry) error
	ListMedia(ctx context.Context) ([]*MediaEntry, error)
	DeleteMedia(ctx context.Context, path string) error

	CreateImport(ctx context.Context, rec *ImportRecord) error
	FinishImport(ctx context.Context, rec *ImportRecord) error
	GetImport(ctx context.Context, id string) (*ImportRecord, error)
	ListImports(ctx context.Context, limit int) ([]*ImportRecord, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const mediaColumns = `path, media_type, duration_ms, width, height, frame_rate, has_audio, size, mtime, probed_at`

func (r *SQLiteRepository) GetMedia(ctx context.Context, path string) (*MediaEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE path = ?`, path)
	e, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *SQLiteRepository) UpsertMedia(ctx context.Context, e *MediaEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media (`+mediaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			media_type = excluded.media_type,
			duration_ms = excluded.duration_ms,
			width = excluded.width,
			height = excluded.height,
			frame_rate = excluded.frame_rate,
			has_audio = excluded.has_audio,
			size = excluded.size,
			mtime = excluded.mtime,
			probed_at = excluded.probed_at
	`, e.Path, e.MediaType, e.DurationMs, e.Width, e.Height, e.FrameRate, boolToInt(e.HasAudio), e.Size,
		formatTime(e.Mtime), formatTime(e.ProbedAt))
	return err
}

func (r *SQLiteRepository) ListMedia(ctx context.Context) ([]*MediaEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*MediaEntry
	for rows.Next() {
		e, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) DeleteMedia(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE path = ?`, path)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner) (*MediaEntry, error) {
	var e MediaEntry
	var hasAudio int
	var mtime, probedAt string

	err := s.Scan(&e.Path, &e.MediaType, &e.DurationMs, &e.Width, &e.Height, &e.FrameRate,
		&hasAudio, &e.Size, &mtime, &probedAt)
	if err != nil {
		return nil, err
	}

	e.HasAudio = hasAudio == 1
	e.Mtime, _ = time.Parse(time.RFC3339, mtime)
	e.ProbedAt, _ = time.Parse(time.RFC3339, probedAt)
	return &e, nil
}

const importColumns = `id, project_path, status, clips_created, discarded, missing_files, error, created_at, updated_at`

func (r *SQLiteRepository) CreateImport(ctx context.Context, rec *ImportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO imports (`+importColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ProjectPath, rec.Status, rec.ClipsCreated, rec.Discarded, rec.MissingFiles,
		nullString(rec.Error), formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	return err
}

// FinishImport stores the final status and counters of an import.
func (r *SQLiteRepository) FinishImport(ctx context.Context, rec *ImportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE imports
		SET status = ?, clips_created = ?, discarded = ?, missing_files = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, rec.Status, rec.ClipsCreated, rec.Discarded, rec.MissingFiles, nullString(rec.Error),
		formatTime(rec.UpdatedAt), rec.ID)
	return err
}

func (r *SQLiteRepository) GetImport(ctx context.Context, id string) (*ImportRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+importColumns+` FROM imports WHERE id = ?`, id)
	rec, err := scanImport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *SQLiteRepository) ListImports(ctx context.Context, limit int) ([]*ImportRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+importColumns+` FROM imports ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*ImportRecord
	for rows.Next() {
		rec, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanImport(s scanner) (*ImportRecord, error) {
	var rec ImportRecord
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&rec.ID, &rec.ProjectPath, &rec.Status, &rec.ClipsCreated, &rec.Discarded,
		&rec.MissingFiles, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.Error = errMsg.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
