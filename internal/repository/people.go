package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BurntNail/denim/internal/model"
)

// NewPerson is the payload for provisioning an account. The password
// hash and access token are produced by the auth flow; this layer only
// stores them.
type NewPerson struct {
	FirstName         string
	PrefName          *string
	Surname           string
	Email             string
	HashedPassword    *string
	PasswordIsDefault bool
	AccessToken       *string
}

// CreatePerson provisions a new identity record. Fails with
// ConflictError when the email is already taken; uniqueness is
// enforced by the schema, not checked up front.
func (s *Store) CreatePerson(ctx context.Context, person NewPerson) (uuid.UUID, error) {
	var id uuid.UUID
	row := s.pool.QueryRow(ctx, `
		INSERT INTO people (first_name, pref_name, surname, email, hashed_password, password_is_default, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, person.FirstName, person.PrefName, person.Surname, person.Email,
		person.HashedPassword, person.PasswordIsDefault, person.AccessToken)
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, mapPgError(err, "person")
	}
	return id, nil
}

func roleTable(role model.Role) (string, error) {
	switch role {
	case model.RoleStaff:
		return "staff", nil
	case model.RoleStudent:
		return "students", nil
	case model.RoleAdmin:
		return "admins", nil
	case model.RoleDeveloper:
		return "developers", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

// AttachRole marks a person as staff, admin or developer. Attaching a
// role the person already holds is a no-op. Student attachment needs a
// tutor group and goes through AttachStudent.
func (s *Store) AttachRole(ctx context.Context, personID uuid.UUID, role model.Role) error {
	if role == model.RoleStudent {
		return fmt.Errorf("student role requires a tutor group, use AttachStudent")
	}
	table, err := roleTable(role)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+table+` (person_id) VALUES ($1) ON CONFLICT (person_id) DO NOTHING`,
		personID)
	return mapPgError(err, "person")
}

// AttachStudent marks a person as a student assigned to the given
// tutor group. A student record is never created without a group.
// Attaching an already-held student role is a no-op and does not move
// the student; use AssignStudentToTutorGroup for that.
func (s *Store) AttachStudent(ctx context.Context, personID, tutorGroupID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (person_id, tutor_group_id)
		VALUES ($1, $2)
		ON CONFLICT (person_id) DO NOTHING
	`, personID, tutorGroupID)
	return mapPgError(err, "person or tutor group")
}

// GetPerson loads a person together with every role they hold. For
// students the tutor group, the house derived through it, and the ids
// of events they participate in are resolved as well.
func (s *Store) GetPerson(ctx context.Context, id uuid.UUID) (model.Person, error) {
	return s.getPerson(ctx, s.pool, id)
}

func (s *Store) getPerson(ctx context.Context, q querier, id uuid.UUID) (model.Person, error) {
	var person model.Person
	row := q.QueryRow(ctx, `
		SELECT id, first_name, pref_name, surname, email, hashed_password, password_is_default, access_token
		FROM people
		WHERE id = $1
	`, id)
	err := row.Scan(
		&person.ID,
		&person.FirstName,
		&person.PrefName,
		&person.Surname,
		&person.Email,
		&person.HashedPassword,
		&person.PasswordIsDefault,
		&person.AccessToken,
	)
	if err != nil {
		return model.Person{}, mapPgError(err, "person")
	}

	for _, role := range []model.Role{model.RoleStaff, model.RoleAdmin, model.RoleDeveloper} {
		table, _ := roleTable(role)
		held, err := exists(ctx, q, `SELECT 1 FROM `+table+` WHERE person_id = $1`, id)
		if err != nil {
			return model.Person{}, err
		}
		if held {
			person.Roles = append(person.Roles, role)
		}
	}

	var tutorGroupID uuid.UUID
	err = q.QueryRow(ctx, `SELECT tutor_group_id FROM students WHERE person_id = $1`, id).Scan(&tutorGroupID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return person, nil
	case err != nil:
		return model.Person{}, err
	}

	person.Roles = append(person.Roles, model.RoleStudent)
	detail := &model.StudentDetail{TutorGroupID: tutorGroupID}
	err = q.QueryRow(ctx, `SELECT house_id FROM tutor_groups WHERE id = $1`, tutorGroupID).Scan(&detail.HouseID)
	if err != nil {
		return model.Person{}, mapPgError(err, "tutor group")
	}

	rows, err := q.Query(ctx, `SELECT event_id FROM participation WHERE student_id = $1`, id)
	if err != nil {
		return model.Person{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID uuid.UUID
		if err := rows.Scan(&eventID); err != nil {
			return model.Person{}, err
		}
		detail.EventIDs = append(detail.EventIDs, eventID)
	}
	if err := rows.Err(); err != nil {
		return model.Person{}, err
	}
	person.Student = detail
	return person, nil
}

// GetPersonByEmail resolves a person by their unique email.
func (s *Store) GetPersonByEmail(ctx context.Context, email string) (model.Person, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM people WHERE email = $1`, email).Scan(&id)
	if err != nil {
		return model.Person{}, mapPgError(err, "person")
	}
	return s.GetPerson(ctx, id)
}

// ListPeople returns every person id, role resolution left to callers.
func (s *Store) ListPeople(ctx context.Context) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `SELECT id FROM people ORDER BY surname, first_name`)
}

// ListByRole returns the ids of everyone holding the given role.
func (s *Store) ListByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	table, err := roleTable(role)
	if err != nil {
		return nil, err
	}
	return s.listIDs(ctx, `SELECT person_id FROM `+table)
}

func (s *Store) listIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdatePassword replaces the stored credential and records whether it
// is a system-assigned default requiring forced rotation.
func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string, isDefault bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE people SET hashed_password = $1, password_is_default = $2 WHERE id = $3
	`, hashedPassword, isDefault, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("person", id)
	}
	return nil
}

// UpdateAccessToken stores (or clears, with nil) the external OAuth
// access token for a person.
func (s *Store) UpdateAccessToken(ctx context.Context, id uuid.UUID, token *string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE people SET access_token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("person", id)
	}
	return nil
}

// DeletePerson removes a person and everything hanging off them: role
// records, participation rows and any tutor groups they lead. Events
// they own survive with the owner cleared. The delete is rejected with
// ConstraintViolationError while the person still leads a tutor group
// that has students assigned, since cascading there would silently
// delete other people's student records.
func (s *Store) DeletePerson(ctx context.Context, id uuid.UUID) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM people WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if !found {
			return notFound("person", id)
		}

		blocked, err := exists(ctx, tx, `
			SELECT 1 FROM students
			JOIN tutor_groups ON tutor_groups.id = students.tutor_group_id
			WHERE tutor_groups.staff_id = $1`, id)
		if err != nil {
			return err
		}
		if blocked {
			return &ConstraintViolationError{
				Detail: "person leads a tutor group with assigned students",
			}
		}

		_, err = tx.Exec(ctx, `DELETE FROM people WHERE id = $1`, id)
		return mapPgError(err, "person")
	})
}
