package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
)

type LocationRepo struct {
	pool *pgxpool.Pool
}

func NewLocationRepo(pool *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{pool: pool}
}

func (r *LocationRepo) CreateFavorite(ctx context.Context, l *models.Location) error {
	l.ID = uuid.New()

	query := `INSERT INTO favorite_locations (id, user_id, place_id, name, address, category, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, place_id) DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		l.ID, l.UserID, l.PlaceID, l.Name, l.Address, l.Category, l.Latitude, l.Longitude,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *LocationRepo) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*models.Location, error) {
	query := `SELECT id, user_id, place_id, name, address, category, latitude, longitude, created_at
		FROM favorite_locations WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		l := &models.Location{}
		err := rows.Scan(&l.ID, &l.UserID, &l.PlaceID, &l.Name, &l.Address, &l.Category, &l.Latitude, &l.Longitude, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, nil
}

func (r *LocationRepo) GetFavorite(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	l := &models.Location{}
	query := `SELECT id, user_id, place_id, name, address, category, latitude, longitude, created_at
		FROM favorite_locations WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.UserID, &l.PlaceID, &l.Name, &l.Address, &l.Category, &l.Latitude, &l.Longitude, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LocationRepo) DeleteFavorite(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM favorite_locations WHERE id = $1", id)
	return err
}
