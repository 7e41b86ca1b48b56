package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Passenger, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*Claims, error)
	Logout(ctx context.Context, claims *Claims) error
}

// DenyList remembers logged-out token ids until they would have expired anyway.
type DenyList interface {
	DenyToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenDenied(ctx context.Context, jti string) (bool, error)
}

type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// PassengerID returns false for admin tokens.
func (c *Claims) PassengerID() (int64, bool) {
	if c.Role != domain.RolePassenger {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type Session struct {
	Token       string
	ExpiresAt   time.Time
	Role        domain.Role
	PassengerID int64
	Name        string
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type Config struct {
	Secret        string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

type AuthService struct {
	passengers repository.PassengerRepository
	denyList   DenyList
	cfg        Config
	bcryptCost int
	now        func() time.Time
}

type AuthServiceOption func(*AuthService)

func WithBcryptCost(cost int) AuthServiceOption {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService falls back to a LocalDenyList when denyList is nil.
func NewAuthService(passengers repository.PassengerRepository, denyList DenyList, cfg Config, opts ...AuthServiceOption) *AuthService {
	if denyList == nil {
		denyList = NewLocalDenyList()
	}
	service := &AuthService{
		passengers: passengers,
		denyList:   denyList,
		cfg:        cfg,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Passenger, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Name == "" || input.Email == "" || input.Phone == "" || input.Password == "" {
		return nil, domain.ValidationError{Msg: "all fields are required"}
	}
	if !strings.Contains(input.Email, "@") {
		return nil, domain.ValidationError{Field: "email", Msg: "is not a valid address"}
	}
	if strings.EqualFold(input.Email, s.cfg.AdminEmail) {
		return nil, domain.ValidationError{Field: "email", Msg: "is reserved"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	passenger := &domain.Passenger{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
	}
	if err := s.passengers.Create(ctx, passenger); err != nil {
		return nil, err
	}
	log.Printf("passenger registered passenger_id=%d", passenger.ID)
	return passenger, nil
}

// Login checks the configured admin first, then registered passengers.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.cfg.AdminEmail != "" && strings.EqualFold(email, s.cfg.AdminEmail) &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1 {
		return s.issue(adminSubject, domain.RoleAdmin, 0, "admin")
	}

	p, err := s.passengers.GetByEmail(ctx, email)
	if domain.IsNotFound(err) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(strconv.FormatInt(p.ID, 10), domain.RolePassenger, p.ID, p.Name)
}

func (s *AuthService) issue(subject string, role domain.Role, passengerID int64, name string) (*Session, error) {
	now := s.now().UTC()
	exp := now.Add(s.cfg.TokenTTL)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: exp, Role: role, PassengerID: passengerID, Name: name}, nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Role != domain.RoleAdmin && claims.Role != domain.RolePassenger {
		return nil, domain.ErrInvalidToken
	}

	if claims.ID != "" {
		denied, err := s.denyList.IsTokenDenied(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token deny-list: %w", err)
		}
		if denied {
			return nil, domain.ErrInvalidToken
		}
	}
	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return errors.New("no claims to revoke")
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return errors.New("token cannot be revoked")
	}
	return s.denyList.DenyToken(ctx, claims.ID, claims.ExpiresAt.Sub(s.now()))
}

var _ AuthUseCase = (*AuthService)(nil)
