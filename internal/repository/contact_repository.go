package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// ConstraintContactOwnerName marks a duplicate contact name for one owner.
const ConstraintContactOwnerName = "contacts_owner_name_key"

// ContactRepository encapsulates contact persistence. Every operation is
// scoped to the owning user; rows belonging to other users behave as absent.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, ownerID, id int64) error
	GetByID(ctx context.Context, ownerID, id int64) (*domain.Contact, error)
	ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]domain.Contact, error)
}

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository instantiates repository.
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

const contactColumns = `id, owner_id, name, surname, email, phone, birthday, extra_info, created_at, updated_at`

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (owner_id, name, surname, email, phone, birthday, extra_info)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		contact.OwnerID,
		contact.Name,
		contact.Surname,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.ExtraInfo,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return classifyDuplicate(err)
	}
	return nil
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	const query = `
        UPDATE contacts SET name=$1, surname=$2, email=$3, phone=$4, birthday=$5, extra_info=$6, updated_at=NOW()
        WHERE id=$7 AND owner_id=$8
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		contact.Name,
		contact.Surname,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.ExtraInfo,
		contact.ID,
		contact.OwnerID,
	).Scan(&contact.UpdatedAt)
	if err != nil {
		return classifyDuplicate(err)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, ownerID, id int64) error {
	const query = `DELETE FROM contacts WHERE id=$1 AND owner_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contactRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE id=$1 AND owner_id=$2`

	var contact domain.Contact
	if err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&contact.ID,
		&contact.OwnerID,
		&contact.Name,
		&contact.Surname,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&contact.ExtraInfo,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]domain.Contact, error) {
	const query = `
        SELECT ` + contactColumns + ` FROM contacts
        WHERE owner_id=$1
        ORDER BY id
        OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		var contact domain.Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.OwnerID,
			&contact.Name,
			&contact.Surname,
			&contact.Email,
			&contact.Phone,
			&contact.Birthday,
			&contact.ExtraInfo,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
