package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/repository"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

const (
	defaultContactLimit = 100
	maxContactLimit     = 500
)

// ContactService provides owner-scoped contact CRUD. Contacts of other users
// are indistinguishable from absent ones.
type ContactService struct {
	contacts repository.ContactRepository
}

// NewContactService builds the service.
func NewContactService(contacts repository.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

// List returns a page of the owner's contacts.
func (s *ContactService) List(ctx context.Context, owner *domain.User, skip, limit int) ([]domain.Contact, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultContactLimit
	}
	if limit > maxContactLimit {
		limit = maxContactLimit
	}
	contacts, err := s.contacts.ListByOwner(ctx, owner.ID, skip, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return contacts, nil
}

// Get returns one contact by id.
func (s *ContactService) Get(ctx context.Context, owner *domain.User, id int64) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, s.mapContactError(err)
	}
	return contact, nil
}

// Create stores a new contact for the owner.
func (s *ContactService) Create(ctx context.Context, owner *domain.User, contact *domain.Contact) (*domain.Contact, error) {
	contact.OwnerID = owner.ID
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, s.mapContactError(err)
	}
	return contact, nil
}

// Update replaces the mutable fields of an existing contact.
func (s *ContactService) Update(ctx context.Context, owner *domain.User, id int64, update *domain.Contact) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, s.mapContactError(err)
	}

	contact.Name = update.Name
	contact.Surname = update.Surname
	contact.Email = update.Email
	contact.Phone = update.Phone
	contact.Birthday = update.Birthday
	contact.ExtraInfo = update.ExtraInfo

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, s.mapContactError(err)
	}
	return contact, nil
}

// Delete removes a contact and returns the removed record. Deleting an
// already-deleted contact reports not found.
func (s *ContactService) Delete(ctx context.Context, owner *domain.User, id int64) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, s.mapContactError(err)
	}
	if err := s.contacts.Delete(ctx, owner.ID, id); err != nil {
		return nil, s.mapContactError(err)
	}
	return contact, nil
}

func (s *ContactService) mapContactError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("contact", nil)
	}
	if dup, ok := repository.AsDuplicate(err); ok {
		if dup.Constraint == repository.ConstraintContactOwnerName {
			return apperrors.NewConflict("contact with this name already exists", nil)
		}
		return apperrors.NewConflict("duplicate value", map[string]any{"constraint": dup.Constraint})
	}
	return apperrors.MapError(err)
}
