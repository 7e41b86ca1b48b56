package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

type MySQLPassengerRepository struct {
	q SQLDBTX
}

func (r *MySQLPassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx, `INSERT INTO passengers (name, email, phone, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Email, p.Phone, p.PasswordHash, now)
	if isMySQLDuplicate(err) {
		return domain.ConflictError{Resource: "passenger", Msg: "email already registered", Err: err}
	}
	if err != nil {
		return fmt.Errorf("insert passenger: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (r *MySQLPassengerRepository) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	return r.get(ctx, `SELECT id, name, email, phone, password_hash, created_at FROM passengers WHERE id = ?`, id)
}

func (r *MySQLPassengerRepository) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	return r.get(ctx, `SELECT id, name, email, phone, password_hash, created_at FROM passengers WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *MySQLPassengerRepository) get(ctx context.Context, query string, arg any) (*domain.Passenger, error) {
	var p domain.Passenger
	err := r.q.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "passenger", Err: err}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PassengerRepository = (*MySQLPassengerRepository)(nil)
