package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

var ErrNotFound = errors.New("record not found")

type LeadRepo struct {
	pool *pgxpool.Pool
}

func NewLeadRepo(pool *pgxpool.Pool) *LeadRepo {
	return &LeadRepo{pool: pool}
}

func (r *LeadRepo) Create(ctx context.Context, l *models.Lead) error {
	l.ID = uuid.New()
	if l.Source == "" {
		l.Source = "site"
	}

	query := `INSERT INTO leads (id, name, phone, email, message, source)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		l.ID, l.Name, l.Phone, l.Email, l.Message, l.Source,
	).Scan(&l.CreatedAt)
}

func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	l := &models.Lead{}
	query := `SELECT id, name, phone, email, message, source, created_at, notified_at
		FROM leads WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Name, &l.Phone, &l.Email, &l.Message, &l.Source, &l.CreatedAt, &l.NotifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LeadRepo) MarkNotified(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE leads SET notified_at = $1 WHERE id = $2 AND notified_at IS NULL",
		time.Now(), id,
	)
	return err
}

// ListPending returns leads never notified, oldest first.
func (r *LeadRepo) ListPending(ctx context.Context, limit int) ([]models.Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, email, message, source, created_at, notified_at
		FROM leads WHERE notified_at IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Message, &l.Source, &l.CreatedAt, &l.NotifiedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
