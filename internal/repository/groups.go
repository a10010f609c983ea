package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BurntNail/denim/internal/model"
)

// CreateHouse adds a top-level cohort.
func (s *Store) CreateHouse(ctx context.Context, name string) (int32, error) {
	var id int32
	err := s.pool.QueryRow(ctx, `INSERT INTO houses (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, mapPgError(err, "house")
	}
	return id, nil
}

func (s *Store) GetHouse(ctx context.Context, id int32) (model.House, error) {
	var house model.House
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM houses WHERE id = $1`, id).Scan(&house.ID, &house.Name)
	if err != nil {
		return model.House{}, mapPgError(err, "house")
	}
	return house, nil
}

func (s *Store) ListHouses(ctx context.Context) ([]model.House, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM houses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var houses []model.House
	for rows.Next() {
		var house model.House
		if err := rows.Scan(&house.ID, &house.Name); err != nil {
			return nil, err
		}
		houses = append(houses, house)
	}
	return houses, rows.Err()
}

// DeleteHouse removes a house. Rejected while tutor groups still
// belong to it, so the cascade cannot silently take student
// assignments with it.
func (s *Store) DeleteHouse(ctx context.Context, id int32) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		inUse, err := exists(ctx, tx, `SELECT 1 FROM tutor_groups WHERE house_id = $1`, id)
		if err != nil {
			return err
		}
		if inUse {
			return &ConstraintViolationError{Detail: "house still has tutor groups"}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM houses WHERE id = $1`, id)
		if err != nil {
			return mapPgError(err, "house")
		}
		if tag.RowsAffected() == 0 {
			return &NotFoundError{Entity: "house"}
		}
		return nil
	})
}

// CreateTutorGroup adds a staff-led sub-cohort bound to one house.
// Fails with NotFoundError when either reference is invalid.
func (s *Store) CreateTutorGroup(ctx context.Context, staffID uuid.UUID, houseID int32) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tutor_groups (staff_id, house_id) VALUES ($1, $2) RETURNING id
	`, staffID, houseID).Scan(&id)
	if err != nil {
		return uuid.Nil, mapPgError(err, "staff or house")
	}
	return id, nil
}

func (s *Store) GetTutorGroup(ctx context.Context, id uuid.UUID) (model.TutorGroup, error) {
	var group model.TutorGroup
	err := s.pool.QueryRow(ctx, `
		SELECT id, staff_id, house_id FROM tutor_groups WHERE id = $1
	`, id).Scan(&group.ID, &group.StaffID, &group.HouseID)
	if err != nil {
		return model.TutorGroup{}, mapPgError(err, "tutor group")
	}
	return group, nil
}

func (s *Store) ListTutorGroups(ctx context.Context) ([]model.TutorGroup, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, staff_id, house_id FROM tutor_groups ORDER BY house_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []model.TutorGroup
	for rows.Next() {
		var group model.TutorGroup
		if err := rows.Scan(&group.ID, &group.StaffID, &group.HouseID); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// AssignStudentToTutorGroup moves a student to another group. Every
// student has exactly one group at all times; this swaps the link
// rather than ever leaving it empty.
func (s *Store) AssignStudentToTutorGroup(ctx context.Context, studentID, tutorGroupID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students SET tutor_group_id = $1 WHERE person_id = $2
	`, tutorGroupID, studentID)
	if err != nil {
		return mapPgError(err, "tutor group")
	}
	if tag.RowsAffected() == 0 {
		return notFound("student", studentID)
	}
	return nil
}

// DeleteTutorGroup removes a group. Rejected with
// ConstraintViolationError while students remain assigned: the link
// column is NOT NULL, so they must be reassigned or removed first.
func (s *Store) DeleteTutorGroup(ctx context.Context, id uuid.UUID) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		assigned, err := exists(ctx, tx, `SELECT 1 FROM students WHERE tutor_group_id = $1`, id)
		if err != nil {
			return err
		}
		if assigned {
			return &ConstraintViolationError{Detail: "tutor group still has students assigned"}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tutor_groups WHERE id = $1`, id)
		if err != nil {
			return mapPgError(err, "tutor group")
		}
		if tag.RowsAffected() == 0 {
			return notFound("tutor group", id)
		}
		return nil
	})
}
