package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BurntNail/denim/internal/model"
)

// NewEvent is the payload for creating an event. Date is stored as
// wall-clock UTC alongside the IANA zone name it was scheduled in.
type NewEvent struct {
	Name         string
	Date         time.Time
	Timezone     string
	Location     *string
	ExtraInfo    *string
	OwnerStaffID *uuid.UUID
}

// CreateEvent records an event, optionally owned by a staff member.
// Fails with NotFoundError when the owner reference does not match a
// staff record.
func (s *Store) CreateEvent(ctx context.Context, event NewEvent) (uuid.UUID, error) {
	timezone := event.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return uuid.Nil, &ConstraintViolationError{Detail: "unknown timezone " + timezone}
	}

	var id uuid.UUID
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if event.OwnerStaffID != nil {
			found, err := exists(ctx, tx, `SELECT 1 FROM staff WHERE person_id = $1`, *event.OwnerStaffID)
			if err != nil {
				return err
			}
			if !found {
				return notFound("staff", *event.OwnerStaffID)
			}
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO events (name, date, tz, location, extra_info, owner_staff_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, event.Name, event.Date.UTC(), timezone, event.Location, event.ExtraInfo, event.OwnerStaffID)
		return mapPgError(row.Scan(&id), "event")
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetEvent loads an event and the ids of its participating students,
// split into signed-up and verified.
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (model.Event, error) {
	var event model.Event
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, date, tz, location, extra_info, owner_staff_id
		FROM events
		WHERE id = $1
	`, id)
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Date,
		&event.Timezone,
		&event.Location,
		&event.ExtraInfo,
		&event.OwnerStaffID,
	)
	if err != nil {
		return model.Event{}, mapPgError(err, "event")
	}

	rows, err := s.pool.Query(ctx, `SELECT student_id, is_verified FROM participation WHERE event_id = $1`, id)
	if err != nil {
		return model.Event{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var studentID uuid.UUID
		var verified bool
		if err := rows.Scan(&studentID, &verified); err != nil {
			return model.Event{}, err
		}
		if verified {
			event.Verified = append(event.Verified, studentID)
		} else {
			event.SignedUp = append(event.SignedUp, studentID)
		}
	}
	if err := rows.Err(); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// ListFutureEvents returns ids of events after now, soonest first.
func (s *Store) ListFutureEvents(ctx context.Context) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `SELECT id FROM events WHERE date > NOW() ORDER BY date`)
}

// ListPastEvents returns ids of events at or before now, latest first.
func (s *Store) ListPastEvents(ctx context.Context) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `SELECT id FROM events WHERE date <= NOW() ORDER BY date DESC`)
}

// RecordParticipation signs a student up for an event. Idempotent: a
// second call for the same pair leaves the single existing row alone,
// enforced by the pair primary key.
func (s *Store) RecordParticipation(ctx context.Context, eventID, studentID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO participation (event_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, student_id) DO NOTHING
	`, eventID, studentID)
	return mapPgError(err, "event or student")
}

// VerifyParticipation confirms a student's attendance. Fails with
// NotFoundError when the pair has no participation row.
func (s *Store) VerifyParticipation(ctx context.Context, eventID, studentID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE participation SET is_verified = true WHERE event_id = $1 AND student_id = $2
	`, eventID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "participation"}
	}
	return nil
}

// ParticipationState reports whether a student is signed up for, or
// verified at, an event. A person without a student record gets
// NotFoundError.
func (s *Store) ParticipationState(ctx context.Context, eventID, studentID uuid.UUID) (model.ParticipationState, error) {
	isStudent, err := exists(ctx, s.pool, `SELECT 1 FROM students WHERE person_id = $1`, studentID)
	if err != nil {
		return model.ParticipationNone, err
	}
	if !isStudent {
		return model.ParticipationNone, notFound("student", studentID)
	}
	var verified bool
	err = s.pool.QueryRow(ctx, `
		SELECT is_verified FROM participation WHERE event_id = $1 AND student_id = $2
	`, eventID, studentID).Scan(&verified)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.ParticipationNone, nil
	case err != nil:
		return model.ParticipationNone, err
	case verified:
		return model.ParticipationVerified, nil
	}
	return model.ParticipationSignedUp, nil
}

// DeleteEvent removes an event; participation rows cascade with it.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("event", id)
	}
	return nil
}
