// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package directory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamvote/elections/models"
)

// Directory is the SQL-backed implementation of the election package's
// TeamService and Identities interfaces.
type Directory struct {
	db *sql.DB
}

func New(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// CreatePerson registers a person and returns their ID.
func (d *Directory) CreatePerson(username, firstName, lastName, email string) (string, error) {
	id := uuid.NewString()
	_, err := d.db.Exec(`
		INSERT INTO person (id, username, first_name, last_name, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, username, firstName, lastName, email, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to insert person: %w", err)
	}
	return id, nil
}

// CreateTeam registers a team and returns its ID.
func (d *Directory) CreateTeam(slug, name string) (string, error) {
	id := uuid.NewString()
	_, err := d.db.Exec(`
		INSERT INTO team (id, slug, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, slug, name, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to insert team: %w", err)
	}
	return id, nil
}

// TeamBySlug resolves a team's public slug.
func (d *Directory) TeamBySlug(slug string) (models.Team, error) {
	var t models.Team
	err := d.db.QueryRow(`
		SELECT id, slug, name, created_at FROM team WHERE slug = $1
	`, slug).Scan(&t.ID, &t.Slug, &t.Name, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	return t, nil
}

// Members returns the person IDs of every member of the team.
func (d *Directory) Members(teamID string) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT person_id FROM team_member WHERE team_id = $1 ORDER BY person_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var personID string
		if err := rows.Scan(&personID); err != nil {
			return nil, err
		}
		members = append(members, personID)
	}
	return members, rows.Err()
}

// AddMember inserts a membership row inside the caller's transaction, or
// refreshes the title and join date when the person is already a member.
func (d *Directory) AddMember(tx *sql.Tx, teamID, personID, title, addedBy string) error {
	res, err := tx.Exec(`
		UPDATE team_member SET title = $1, added_by = $2, joined_at = $3
		WHERE team_id = $4 AND person_id = $5
	`, title, addedBy, time.Now(), teamID, personID)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = tx.Exec(`
		INSERT INTO team_member (team_id, person_id, title, added_by, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, teamID, personID, title, addedBy, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// Snapshot freezes a person's identity fields. Callers treat any error as
// "identity gone" and substitute a placeholder.
func (d *Directory) Snapshot(personID string) (models.Identity, error) {
	var identity models.Identity
	err := d.db.QueryRow(`
		SELECT username, first_name, last_name, email FROM person WHERE id = $1
	`, personID).Scan(&identity.Username, &identity.FirstName,
		&identity.LastName, &identity.Email)
	if err != nil {
		return identity, fmt.Errorf("failed to snapshot person %s: %w", personID, err)
	}
	return identity, nil
}

// MemberDetails lists a team's members with their identity fields, for the
// membership endpoint.
func (d *Directory) MemberDetails(teamID string) ([]models.Person, error) {
	rows, err := d.db.Query(`
		SELECT p.id, p.username, p.first_name, p.last_name, p.email, p.created_at
		FROM team_member m JOIN person p ON m.person_id = p.id
		WHERE m.team_id = $1 ORDER BY p.username
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member details: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName,
			&p.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}
