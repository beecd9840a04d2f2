package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the Postgres schema used by the contact directory and alert history.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createContactsQuery := `
	CREATE TABLE IF NOT EXISTS emergency_contacts (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, phone_number)
	);
	`

	createContactsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_emergency_contacts_user
	ON emergency_contacts(user_id);
	`

	createAlertsQuery := `
	CREATE TABLE IF NOT EXISTS sos_alerts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		sent_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createAlertsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_sos_alerts_user_created
	ON sos_alerts(user_id, created_at DESC);
	`

	statements := []string{
		createContactsQuery,
		createContactsIndexQuery,
		createAlertsQuery,
		createAlertsIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ContactSeed struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Populate emergency_contacts from a JSON file. Phone numbers are stored as
// given; normalization happens at dispatch time.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed contacts: read %q: %w", jsonPath, err)
	}

	var data []ContactSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed contacts: parse json: %w", err)
	}

	rows := make([]ContactSeed, 0, len(data))
	for i, item := range data {
		userID := strings.TrimSpace(item.UserID)
		if userID == "" {
			return 0, fmt.Errorf("seed contacts: item at index %d: user_id cannot be empty", i+1)
		}

		name := strings.TrimSpace(item.Name)
		if name == "" {
			return 0, fmt.Errorf("seed contacts: item at index %d: name cannot be empty", i+1)
		}

		if strings.TrimSpace(item.PhoneNumber) == "" {
			return 0, fmt.Errorf("seed contacts: item at index %d: phone_number cannot be empty", i+1)
		}
		rows = append(rows, ContactSeed{UserID: userID, Name: name, PhoneNumber: item.PhoneNumber})
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed contacts: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO emergency_contacts (
		user_id,
		name,
		phone_number
	)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, phone_number) DO UPDATE SET name = EXCLUDED.name;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed contacts: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range rows {
		if _, err := stmt.ExecContext(ctx, c.UserID, c.Name, c.PhoneNumber); err != nil {
			return 0, fmt.Errorf("seed contacts: insert contact user_id=%s name=%s: %w", c.UserID, c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed contacts: commit tx: %w", err)
	}

	return len(rows), nil
}
