package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/obs"
)

// Postgres-backed implementation of the ContactDirectory port.
type PostgresContactDirectory struct {
	DB *sql.DB
}

func NewPostgresContactDirectory(db *sql.DB) *PostgresContactDirectory {
	return &PostgresContactDirectory{DB: db}
}

// Return the user's emergency contacts in registration order.
func (p *PostgresContactDirectory) ResolveContacts(
	ctx context.Context,
	userID string,
) (_ []domain.Contact, err error) {
	defer obs.Time(ctx, "directory.ResolveContacts")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres contact directory: DB is nil")
	}

	query := `
	SELECT
		name,
		phone_number
	FROM emergency_contacts
	WHERE user_id = $1
	ORDER BY created_at, id;
	`
	rows, err := p.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve contacts: query emergency_contacts table: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0, 8)
	for rows.Next() {
		var name, phone string
		if err := rows.Scan(&name, &phone); err != nil {
			return nil, fmt.Errorf("resolve contacts: scan row: %w", err)
		}
		contacts = append(contacts, domain.Contact{Name: name, PhoneNumber: phone})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve contacts: row iteration: %w", err)
	}

	return contacts, nil
}
