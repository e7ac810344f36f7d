package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studentrecords/internal/entity"
	"studentrecords/internal/policy"
)

type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, email, course, phone, address, enrollment_date, user_id, created_at, updated_at`

func scanStudent(row rowScanner) (*entity.Student, error) {
	var s entity.Student
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.Course,
		&s.Phone,
		&s.Address,
		&s.EnrollmentDate,
		&s.UserID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts s owned by s.UserID and fills in its ID and timestamps.
func (r *StudentRepository) Create(ctx context.Context, s *entity.Student) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (name, email, course, phone, address, enrollment_date, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, s.Name, s.Email, s.Course, s.Phone, s.Address, s.EnrollmentDate.UTC(), s.UserID, now, now).Scan(&s.ID)
	if err != nil {
		return classify(err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int) (*entity.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List returns the students inside scope, newest first. The scope is part
// of the query, so rows outside it are never read.
func (r *StudentRepository) List(ctx context.Context, scope policy.Scope) ([]*entity.Student, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if scope.All {
		rows, err = r.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+studentColumns+`
			FROM students
			WHERE user_id = $1
			ORDER BY id DESC
		`, scope.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]*entity.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

// Update writes the mutable fields of s. The owner column is left alone.
func (r *StudentRepository) Update(ctx context.Context, s *entity.Student) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET name = $1, email = $2, course = $3, phone = $4, address = $5, enrollment_date = $6, updated_at = $7
		WHERE id = $8
	`, s.Name, s.Email, s.Course, s.Phone, s.Address, s.EnrollmentDate.UTC(), now, s.ID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.UpdatedAt = now
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
