package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
)

const jobColumns = "id, user_id, type, reference_id, config_json, status, retry_count, error_message, created_at, completed_at"

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Create inserts a fresh pending job. The caller is responsible for
// putting it on the matching redis queue afterwards.
func (r *JobRepo) Create(ctx context.Context, j *models.Job) error {
	j.ID = uuid.New()
	j.Status = models.JobPending
	j.RetryCount = 0
	j.MaxRetries = models.JobMaxRetries

	if len(j.ConfigJSON) == 0 {
		j.ConfigJSON = []byte("{}")
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, user_id, type, reference_id, config_json, status, retry_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		j.ID, j.UserID, j.Type, j.ReferenceID, j.ConfigJSON, j.Status, j.RetryCount,
	).Scan(&j.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j := &models.Job{MaxRetries: models.JobMaxRetries}

	err := r.pool.QueryRow(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE id = $1", id,
	).Scan(
		&j.ID, &j.UserID, &j.Type, &j.ReferenceID, &j.ConfigJSON, &j.Status,
		&j.RetryCount, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// UpdateStatus moves the job to status, stamping completed_at when the
// new status is terminal (completed/failed).
func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE jobs SET status = $1,
		   completed_at = CASE WHEN $1 IN ($2, $3) THEN NOW() ELSE completed_at END
		 WHERE id = $4`,
		status, models.JobCompleted, models.JobFailed, id,
	)
	return err
}

func (r *JobRepo) UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE jobs SET error_message = $1, retry_count = $2 WHERE id = $3",
		errMsg, retryCount, id,
	)
	return err
}
