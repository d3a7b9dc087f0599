package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
	"marketplace/internal/repos"
	"marketplace/internal/validate"
)

type ContactService struct {
	Contacts *repos.ContactRepo
}

func NewContactService(db sqlx.ExtContext) *ContactService {
	return &ContactService{Contacts: repos.NewContactRepo(db)}
}

type ContactInput struct {
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Structure string `json:"structure"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
	Phone     string `json:"phone"`
}

func (in ContactInput) contact(userID int64) (domain.Contact, error) {
	var ve ValidationError
	c := domain.Contact{UserID: userID}
	var ok bool
	if c.City, ok = validate.Name(in.City, 50); !ok {
		ve.add("city", "required, at most 50 characters")
	}
	if c.Street, ok = validate.Name(in.Street, 100); !ok {
		ve.add("street", "required, at most 100 characters")
	}
	if c.House, ok = validate.Name(in.House, 15); !ok {
		ve.add("house", "required, at most 15 characters")
	}
	if c.Structure, ok = validate.Optional(in.Structure, 15); !ok {
		ve.add("structure", "at most 15 characters")
	}
	if c.Building, ok = validate.Optional(in.Building, 15); !ok {
		ve.add("building", "at most 15 characters")
	}
	if c.Apartment, ok = validate.Optional(in.Apartment, 15); !ok {
		ve.add("apartment", "at most 15 characters")
	}
	if c.Phone, ok = validate.Phone(in.Phone); !ok {
		ve.add("phone", "must be a phone number")
	}
	return c, ve.orNil()
}

func (s *ContactService) List(ctx context.Context, userID int64) ([]domain.Contact, error) {
	return s.Contacts.List(ctx, userID)
}

func (s *ContactService) Create(ctx context.Context, userID int64, in ContactInput) (domain.Contact, error) {
	c, err := in.contact(userID)
	if err != nil {
		return domain.Contact{}, err
	}
	if err := s.Contacts.Create(ctx, &c); err != nil {
		return domain.Contact{}, err
	}
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, userID, id int64, in ContactInput) (domain.Contact, error) {
	c, err := in.contact(userID)
	if err != nil {
		return domain.Contact{}, err
	}
	c.ID = id
	n, err := s.Contacts.Update(ctx, c)
	if err != nil {
		return domain.Contact{}, err
	}
	if n == 0 {
		return domain.Contact{}, fmt.Errorf("%w: contact %d", ErrNotFound, id)
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.Contacts.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: contact %d", ErrNotFound, id)
	}
	return nil
}
