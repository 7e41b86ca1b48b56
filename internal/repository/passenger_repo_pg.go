package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type PGPassengerRepository struct {
	db DBTX
}

func NewPassengerRepository(db DBTX) PassengerRepository {
	return &PGPassengerRepository{db: db}
}

func (r *PGPassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	err := r.db.QueryRow(ctx, `INSERT INTO passengers (name, email, phone, password_hash) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		p.Name, p.Email, p.Phone, p.PasswordHash).Scan(&p.ID, &p.CreatedAt)
	if isPGUniqueViolation(err) {
		return domain.ConflictError{Resource: "passenger", Msg: "email already registered", Err: err}
	}
	if err != nil {
		return fmt.Errorf("insert passenger: %w", err)
	}
	return nil
}

func (r *PGPassengerRepository) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	return r.get(ctx, `SELECT id, name, email, phone, password_hash, created_at FROM passengers WHERE id=$1`, id)
}

func (r *PGPassengerRepository) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	return r.get(ctx, `SELECT id, name, email, phone, password_hash, created_at FROM passengers WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *PGPassengerRepository) get(ctx context.Context, query string, arg any) (*domain.Passenger, error) {
	var p domain.Passenger
	err := r.db.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "passenger", Err: err}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PassengerRepository = (*PGPassengerRepository)(nil)
