package domain

import "time"

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RolePassenger Role = "PASSENGER"
)

type Passenger struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}
