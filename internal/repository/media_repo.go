package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
)

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

func (r *MediaRepo) Create(ctx context.Context, m *models.MediaFile) error {
	m.ID = uuid.New()
	if m.Status == "" {
		m.Status = models.MediaPending
	}
	if len(m.MetadataJSON) == 0 {
		m.MetadataJSON = []byte("{}")
	}

	query := `INSERT INTO media_files (id, user_id, kind, status, file_path, original_name, mime_type, size_bytes, title, metadata_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		m.ID, m.UserID, m.Kind, m.Status, m.FilePath, m.OriginalName, m.MimeType, m.SizeBytes, m.Title, m.MetadataJSON,
	).Scan(&m.CreatedAt)
}

func (r *MediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	m := &models.MediaFile{}
	query := `SELECT id, user_id, kind, status, file_path, original_name, mime_type, size_bytes, title, metadata_json, created_at
		FROM media_files WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.Kind, &m.Status, &m.FilePath, &m.OriginalName,
		&m.MimeType, &m.SizeBytes, &m.Title, &m.MetadataJSON, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MediaRepo) ListByUser(ctx context.Context, userID uuid.UUID, kind string, limit, offset int) ([]*models.MediaFile, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM media_files WHERE user_id = $1 AND ($2 = '' OR kind = $2)",
		userID, kind,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, kind, status, file_path, original_name, mime_type, size_bytes, title, metadata_json, created_at
		FROM media_files WHERE user_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, userID, kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		m := &models.MediaFile{}
		err := rows.Scan(
			&m.ID, &m.UserID, &m.Kind, &m.Status, &m.FilePath, &m.OriginalName,
			&m.MimeType, &m.SizeBytes, &m.Title, &m.MetadataJSON, &m.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		files = append(files, m)
	}
	return files, total, nil
}

func (r *MediaRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE media_files SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *MediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM media_files WHERE id = $1", id)
	return err
}

// CountByUserSince backs the monthly upload limit check.
func (r *MediaRepo) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM media_files WHERE user_id = $1 AND created_at >= $2",
		userID, since,
	).Scan(&count)
	return count, err
}
