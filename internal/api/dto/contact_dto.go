package dto

import (
	"time"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// ContactRequest payload for creating and updating contacts.
type ContactRequest struct {
	Name      string  `json:"name"`
	Surname   string  `json:"surname"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  string  `json:"birthday"` // YYYY-MM-DD
	ExtraInfo *string `json:"extra_info"`
}

// ToDomain converts the request to a domain contact.
func (r ContactRequest) ToDomain() (*domain.Contact, error) {
	birthday, err := time.Parse("2006-01-02", r.Birthday)
	if err != nil {
		return nil, err
	}
	return &domain.Contact{
		Name:      r.Name,
		Surname:   r.Surname,
		Email:     r.Email,
		Phone:     r.Phone,
		Birthday:  birthday,
		ExtraInfo: r.ExtraInfo,
	}, nil
}

// ContactResponse is the public contact representation.
type ContactResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Surname   string  `json:"surname"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  string  `json:"birthday"`
	ExtraInfo *string `json:"extra_info,omitempty"`
}

// NewContactResponse maps a domain contact to its public representation.
func NewContactResponse(contact *domain.Contact) ContactResponse {
	return ContactResponse{
		ID:        contact.ID,
		Name:      contact.Name,
		Surname:   contact.Surname,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Birthday:  contact.Birthday.Format("2006-01-02"),
		ExtraInfo: contact.ExtraInfo,
	}
}

// NewContactListResponse maps a slice of contacts.
func NewContactListResponse(contacts []domain.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, NewContactResponse(&contacts[i]))
	}
	return out
}
