package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/domain"
	"marketplace/internal/log"
	"marketplace/internal/repos"
	"marketplace/internal/validate"
)

// Notifier delivers the e-mail confirmation key to a new user.
type Notifier interface {
	SendConfirmation(ctx context.Context, u *domain.User, token string) error
}

// LogNotifier writes the key to the process log; there is no mail transport.
type LogNotifier struct{}

func (LogNotifier) SendConfirmation(_ context.Context, u *domain.User, token string) error {
	log.L().Info("user.confirm_token",
		zap.Int64("user_id", u.ID),
		zap.String("email", u.Email),
		zap.String("token", token),
	)
	return nil
}

// Claims is the bearer token payload.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB     *sqlx.DB
	Users  *repos.UserRepo
	Notify Notifier
	Secret []byte
	TTL    time.Duration
}

func NewAuthService(db *sqlx.DB, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		DB:     db,
		Users:  repos.NewUserRepo(db),
		Notify: LogNotifier{},
		Secret: []byte(secret),
		TTL:    ttl,
	}
}

type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Company   string `json:"company"`
	Position  string `json:"position"`
}

func (r Registration) check(role domain.Role) (Registration, error) {
	var ve ValidationError
	var ok bool
	if r.FirstName, ok = validate.Name(r.FirstName, 50); !ok {
		ve.add("first_name", "required, at most 50 characters")
	}
	if r.LastName, ok = validate.Name(r.LastName, 50); !ok {
		ve.add("last_name", "required, at most 50 characters")
	}
	if r.Email, ok = validate.Email(r.Email); !ok {
		ve.add("email", "must be a valid e-mail address")
	}
	if !validate.Password(r.Password) {
		ve.add("password", "8-20 characters with lower, upper, digit and symbol")
	}
	if role == domain.RoleSeller {
		if r.Company, ok = validate.Name(r.Company, 100); !ok {
			ve.add("company", "required for partners")
		}
		if r.Position, ok = validate.Name(r.Position, 50); !ok {
			ve.add("position", "required for partners")
		}
	} else {
		if r.Company, ok = validate.Optional(r.Company, 100); !ok {
			ve.add("company", "at most 100 characters")
		}
		if r.Position, ok = validate.Optional(r.Position, 50); !ok {
			ve.add("position", "at most 50 characters")
		}
	}
	return r, ve.orNil()
}

// Register creates an inactive account and hands a confirmation key to the
// notifier.
func (s *AuthService) Register(ctx context.Context, in Registration, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, invalid("type", "unknown role")
	}
	in, err := in.check(role)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:     strings.ToLower(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Company:   in.Company,
		Position:  in.Position,
		Role:      role,
		Hash:      string(hash),
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		users := repos.NewUserRepo(tx)
		if _, err := users.Create(ctx, u); err != nil {
			return err
		}
		return users.SaveConfirmToken(ctx, u.ID, token)
	})
	if errors.Is(err, repos.ErrDuplicate) {
		return nil, fmt.Errorf("%w: e-mail already registered", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Notify.SendConfirmation(ctx, u, token); err != nil {
		return u, fmt.Errorf("send confirmation: %w", err)
	}
	return u, nil
}

// Confirm activates the account owning (email, token) and consumes the token.
func (s *AuthService) Confirm(ctx context.Context, email, token string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, &ValidationError{Fields: map[string]string{
			"email": "required", "token": "required",
		}}
	}
	var u *domain.User
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		users := repos.NewUserRepo(tx)
		var err error
		if u, err = users.ByEmail(ctx, email); err != nil {
			return err
		}
		consumed, err := users.ConsumeConfirmToken(ctx, u.ID, strings.TrimSpace(token))
		if err != nil {
			return err
		}
		if !consumed {
			return sql.ErrNoRows
		}
		u.Active = true
		return users.Activate(ctx, u.ID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invalid("token", "wrong e-mail or token")
	}
	return u, err
}

// Login checks the credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCredentials
	}
	if !u.Active {
		return "", u, ErrInactive
	}
	tok, err := s.Issue(u)
	return tok, u, err
}

func (s *AuthService) Issue(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// Authenticate validates a bearer token and loads its user. The role is
// always read from the store, not trusted from the claims.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrBadCredentials
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.UserID <= 0 {
		return nil, ErrBadCredentials
	}

	u, err := s.Users.ByID(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrInactive
	}
	return u, nil
}
