package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/contactbook/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const repositoryTimeout = 5 * time.Second

const contactColumns = `id, owner_id, first_name, last_name, email, phone_number, birthday, note,
       avatar_object, avatar_content_type, created_at, updated_at`

// Repository allows access to contact persistence. Every statement is scoped
// to the owner passed in.
type Repository struct {
	pool storage.DBTX
}

// NewRepository constructs a contact repository.
func NewRepository(pool storage.DBTX) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new contact for the owner.
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, fields Fields) (Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO contacts (id, owner_id, first_name, last_name, email, phone_number, birthday, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + contactColumns + `;`

	row := storage.Conn(ctx, r.pool).QueryRow(ctx, query,
		uuid.New(), ownerID, fields.FirstName, fields.LastName, fields.Email,
		fields.PhoneNumber, fields.Birthday, fields.Note)

	contact, err := scanContact(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Contact{}, ErrEmailTaken
		}
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// Get fetches a single contact ensuring ownership.
func (r *Repository) Get(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND owner_id = $2;`

	contact, err := scanContact(storage.Conn(ctx, r.pool).QueryRow(ctx, query, contactID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return contact, nil
}

// List returns a page of the owner's contacts in creation order.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT ` + contactColumns + `
FROM contacts
WHERE owner_id = $1
ORDER BY created_at, id
OFFSET $2 LIMIT $3;`

	rows, err := storage.Conn(ctx, r.pool).Query(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return collectContacts(rows)
}

// Update replaces every editable field of the contact.
func (r *Repository) Update(ctx context.Context, ownerID, contactID uuid.UUID, fields Fields) (Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE contacts
SET first_name   = $3,
    last_name    = $4,
    email        = $5,
    phone_number = $6,
    birthday     = $7,
    note         = $8,
    updated_at   = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING ` + contactColumns + `;`

	row := storage.Conn(ctx, r.pool).QueryRow(ctx, query,
		contactID, ownerID, fields.FirstName, fields.LastName, fields.Email,
		fields.PhoneNumber, fields.Birthday, fields.Note)

	contact, err := scanContact(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Contact{}, ErrContactNotFound
		case isUniqueViolation(err):
			return Contact{}, ErrEmailTaken
		}
		return Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// Delete removes a contact owned by the user and returns the removed record.
func (r *Repository) Delete(ctx context.Context, ownerID, contactID uuid.UUID) (Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `DELETE FROM contacts WHERE id = $1 AND owner_id = $2 RETURNING ` + contactColumns + `;`

	contact, err := scanContact(storage.Conn(ctx, r.pool).QueryRow(ctx, query, contactID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, fmt.Errorf("delete contact: %w", err)
	}
	return contact, nil
}

// Search matches the term as a case-insensitive substring of first name,
// last name or email.
func (r *Repository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT ` + contactColumns + `
FROM contacts
WHERE owner_id = $1
  AND (first_name ILIKE $2 ESCAPE '\'
       OR last_name ILIKE $2 ESCAPE '\'
       OR email ILIKE $2 ESCAPE '\')
ORDER BY created_at, id;`

	rows, err := storage.Conn(ctx, r.pool).Query(ctx, query, ownerID, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return collectContacts(rows)
}

// ListByBirthdayKeys returns the owner's contacts whose birthday month and day
// (formatted MM-DD) is one of keys.
func (r *Repository) ListByBirthdayKeys(ctx context.Context, ownerID uuid.UUID, keys []string) ([]Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT ` + contactColumns + `
FROM contacts
WHERE owner_id = $1
  AND to_char(birthday, 'MM-DD') = ANY($2)
ORDER BY created_at, id;`

	rows, err := storage.Conn(ctx, r.pool).Query(ctx, query, ownerID, keys)
	if err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	return collectContacts(rows)
}

// SetAvatar records (or clears, with nil values) the avatar object of a contact.
func (r *Repository) SetAvatar(ctx context.Context, ownerID, contactID uuid.UUID, objectName, contentType *string) (Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE contacts
SET avatar_object       = $3,
    avatar_content_type = $4,
    updated_at          = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING ` + contactColumns + `;`

	contact, err := scanContact(storage.Conn(ctx, r.pool).QueryRow(ctx, query, contactID, ownerID, objectName, contentType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, fmt.Errorf("set avatar: %w", err)
	}
	return contact, nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&c.Birthday,
		&c.Note,
		&c.AvatarObject,
		&c.AvatarContentType,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func collectContacts(rows pgx.Rows) ([]Contact, error) {
	defer rows.Close()

	contacts := make([]Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
