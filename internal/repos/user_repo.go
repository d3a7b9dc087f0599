package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type UserRepo struct{ db sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, email, first_name, last_name, company, position, role, active, password_hash, created_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	id, err := insert(ctx, r.db, `
		INSERT INTO users(email, first_name, last_name, company, position, role, active, password_hash, created_at)
		VALUES(?,?,?,?,?,?,?,?,?)
		RETURNING id
	`, u.Email, u.FirstName, u.LastName, u.Company, u.Position, string(u.Role), u.Active, u.Hash, now())
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := get(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := get(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Activate(ctx context.Context, id int64) error {
	_, err := exec(ctx, r.db, `UPDATE users SET active=? WHERE id=?`, true, id)
	return err
}

// SaveConfirmToken stores the pending confirmation key, replacing an older one.
func (r *UserRepo) SaveConfirmToken(ctx context.Context, userID int64, token string) error {
	_, err := exec(ctx, r.db, `
		INSERT INTO confirm_tokens(user_id, token, created_at)
		VALUES(?,?,?)
		ON CONFLICT(user_id) DO UPDATE SET token=excluded.token, created_at=excluded.created_at
	`, userID, token, now())
	return err
}

// ConsumeConfirmToken deletes the token if it matches the user; it reports
// whether a row was removed.
func (r *UserRepo) ConsumeConfirmToken(ctx context.Context, userID int64, token string) (bool, error) {
	n, err := exec(ctx, r.db, `DELETE FROM confirm_tokens WHERE user_id=? AND token=?`, userID, token)
	return n > 0, err
}
