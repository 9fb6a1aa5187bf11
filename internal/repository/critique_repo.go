package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
)

type CritiqueRepo struct {
	pool *pgxpool.Pool
}

func NewCritiqueRepo(pool *pgxpool.Pool) *CritiqueRepo {
	return &CritiqueRepo{pool: pool}
}

func (r *CritiqueRepo) Create(ctx context.Context, c *models.Critique) error {
	c.ID = uuid.New()
	c.Status = models.CritiqueGenerating
	if len(c.ConfigJSON) == 0 {
		c.ConfigJSON = []byte("{}")
	}

	query := `INSERT INTO critiques (id, user_id, media_id, status, title, focus, depth, config_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.UserID, c.MediaID, c.Status, c.Title, c.Focus, c.Depth, c.ConfigJSON,
	).Scan(&c.CreatedAt)
}

func (r *CritiqueRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Critique, error) {
	c := &models.Critique{}
	query := `SELECT id, user_id, media_id, status, title, focus, depth, config_json, body, strengths, improvements, tags, created_at
		FROM critiques WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.MediaID, &c.Status, &c.Title, &c.Focus, &c.Depth,
		&c.ConfigJSON, &c.Body, &c.Strengths, &c.Improvement, &c.Tags, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CritiqueRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Critique, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM critiques WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, media_id, status, title, focus, depth, config_json, body, strengths, improvements, tags, created_at
		FROM critiques WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var critiques []*models.Critique
	for rows.Next() {
		c := &models.Critique{}
		err := rows.Scan(
			&c.ID, &c.UserID, &c.MediaID, &c.Status, &c.Title, &c.Focus, &c.Depth,
			&c.ConfigJSON, &c.Body, &c.Strengths, &c.Improvement, &c.Tags, &c.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		critiques = append(critiques, c)
	}
	return critiques, total, nil
}

// UpdateGenerated stores the finished critique text and flips the record to ready.
func (r *CritiqueRepo) UpdateGenerated(ctx context.Context, id uuid.UUID, body, strengths, improvements string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	_, err := r.pool.Exec(ctx,
		`UPDATE critiques SET body = $1, strengths = $2, improvements = $3, tags = $4, status = 'ready' WHERE id = $5`,
		body, strengths, improvements, tagsJSON, id,
	)
	return err
}

func (r *CritiqueRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE critiques SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *CritiqueRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM critiques WHERE id = $1", id)
	return err
}

func (r *CritiqueRepo) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM critiques WHERE user_id = $1 AND created_at >= $2",
		userID, since,
	).Scan(&count)
	return count, err
}
