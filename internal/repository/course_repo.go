package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()
	c.Status = models.CourseGenerating
	if len(c.ConfigJSON) == 0 {
		c.ConfigJSON = []byte("{}")
	}
	if len(c.PartsJSON) == 0 {
		c.PartsJSON = []byte("[]")
	}

	query := `INSERT INTO courses (id, user_id, status, title, config_json, parts_json, part_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.UserID, c.Status, c.Title, c.ConfigJSON, c.PartsJSON, c.PartCount,
	).Scan(&c.CreatedAt)
}

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c := &models.Course{}
	query := `SELECT id, user_id, status, title, description, config_json, parts_json, assignment_json, part_count, created_at
		FROM courses WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Status, &c.Title, &c.Description,
		&c.ConfigJSON, &c.PartsJSON, &c.AssignmentJSON, &c.PartCount, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Course, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM courses WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Part bodies are omitted from listings; the viewer fetches the full
	// document on open.
	query := `SELECT id, user_id, status, title, description, part_count, created_at
		FROM courses WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c := &models.Course{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Status, &c.Title, &c.Description, &c.PartCount, &c.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	return courses, total, nil
}

// UpdateGenerated stores the generated parts and flips the course to ready.
func (r *CourseRepo) UpdateGenerated(ctx context.Context, id uuid.UUID, title string, description *string, parts json.RawMessage, assignment json.RawMessage, partCount int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE courses SET title = $1, description = $2, parts_json = $3, assignment_json = $4, part_count = $5, status = $6 WHERE id = $7`,
		title, description, parts, assignment, partCount, models.CourseReady, id,
	)
	return err
}

func (r *CourseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE courses SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *CourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM courses WHERE id = $1", id)
	return err
}

func (r *CourseRepo) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM courses WHERE user_id = $1 AND created_at >= $2",
		userID, since,
	).Scan(&count)
	return count, err
}
