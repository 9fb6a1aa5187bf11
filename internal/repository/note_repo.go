package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) Create(ctx context.Context, n *models.Note) error {
	n.ID = uuid.New()
	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(n.Tags)

	query := `INSERT INTO notes (id, user_id, critique_id, title, body, tags)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		n.ID, n.UserID, n.CritiqueID, n.Title, n.Body, tagsJSON,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *NoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n := &models.Note{}
	query := `SELECT id, user_id, critique_id, title, body, tags, is_pinned, created_at, updated_at
		FROM notes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.UserID, &n.CritiqueID, &n.Title, &n.Body, &n.Tags, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *NoteRepo) ListByUser(ctx context.Context, userID uuid.UUID, search, tag string, limit, offset int) ([]*models.Note, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM notes WHERE user_id = $1
		AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR body ILIKE '%' || $2 || '%')
		AND ($3 = '' OR tags ? $3)`
	if err := r.pool.QueryRow(ctx, countQuery, userID, search, tag).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, critique_id, title, body, tags, is_pinned, created_at, updated_at
		FROM notes WHERE user_id = $1
		AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR body ILIKE '%' || $2 || '%')
		AND ($3 = '' OR tags ? $3)
		ORDER BY is_pinned DESC, updated_at DESC LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, userID, search, tag, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		n := &models.Note{}
		err := rows.Scan(&n.ID, &n.UserID, &n.CritiqueID, &n.Title, &n.Body, &n.Tags, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
	}
	return notes, total, nil
}

// GetManyByIDs loads the note bundle for course generation, preserving the
// requested order.
func (r *NoteRepo) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Note, error) {
	query := `SELECT id, user_id, critique_id, title, body, tags, is_pinned, created_at, updated_at
		FROM notes WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*models.Note, len(ids))
	for rows.Next() {
		n := &models.Note{}
		err := rows.Scan(&n.ID, &n.UserID, &n.CritiqueID, &n.Title, &n.Body, &n.Tags, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return nil, err
		}
		byID[n.ID] = n
	}

	var notes []*models.Note
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (r *NoteRepo) Update(ctx context.Context, n *models.Note) error {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(n.Tags)
	_, err := r.pool.Exec(ctx,
		`UPDATE notes SET title = $1, body = $2, tags = $3, is_pinned = $4, updated_at = NOW() WHERE id = $5`,
		n.Title, n.Body, tagsJSON, n.IsPinned, n.ID,
	)
	return err
}

func (r *NoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM notes WHERE id = $1", id)
	return err
}
