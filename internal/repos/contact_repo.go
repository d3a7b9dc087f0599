package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type ContactRepo struct{ db sqlx.ExtContext }

func NewContactRepo(db sqlx.ExtContext) *ContactRepo { return &ContactRepo{db: db} }

const contactCols = `id, user_id, city, street, house, structure, building, apartment, phone`

func (r *ContactRepo) List(ctx context.Context, userID int64) ([]domain.Contact, error) {
	out := []domain.Contact{}
	err := sel(ctx, r.db, &out, `SELECT `+contactCols+` FROM contacts WHERE user_id=? ORDER BY id`, userID)
	return out, err
}

// Get returns the contact only if userID owns it.
func (r *ContactRepo) Get(ctx context.Context, id, userID int64) (domain.Contact, error) {
	var c domain.Contact
	err := get(ctx, r.db, &c, `SELECT `+contactCols+` FROM contacts WHERE id=? AND user_id=?`, id, userID)
	return c, err
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	id, err := insert(ctx, r.db, `
		INSERT INTO contacts(user_id, city, street, house, structure, building, apartment, phone)
		VALUES(?,?,?,?,?,?,?,?)
		RETURNING id
	`, c.UserID, c.City, c.Street, c.House, c.Structure, c.Building, c.Apartment, c.Phone)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *ContactRepo) Update(ctx context.Context, c domain.Contact) (int64, error) {
	return exec(ctx, r.db, `
		UPDATE contacts
		SET city=?, street=?, house=?, structure=?, building=?, apartment=?, phone=?
		WHERE id=? AND user_id=?
	`, c.City, c.Street, c.House, c.Structure, c.Building, c.Apartment, c.Phone, c.ID, c.UserID)
}

func (r *ContactRepo) Delete(ctx context.Context, id, userID int64) (int64, error) {
	return exec(ctx, r.db, `DELETE FROM contacts WHERE id=? AND user_id=?`, id, userID)
}

// ByIDs loads contacts regardless of owner (partner view of order contacts).
func (r *ContactRepo) ByIDs(ctx context.Context, ids []int64) (map[int64]domain.Contact, error) {
	out := map[int64]domain.Contact{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+contactCols+` FROM contacts WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Contact
	if err := sel(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}
