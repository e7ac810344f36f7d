package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studentrecords/internal/apperr"
	"studentrecords/internal/clock"
	"studentrecords/internal/entity"
	"studentrecords/internal/policy"
	"studentrecords/internal/repository"
)

type StudentStore interface {
	Create(ctx context.Context, s *entity.Student) error
	GetByID(ctx context.Context, id int) (*entity.Student, error)
	List(ctx context.Context, scope policy.Scope) ([]*entity.Student, error)
	Update(ctx context.Context, s *entity.Student) error
	Delete(ctx context.Context, id int) error
}

// StudentInput carries client-supplied fields. Any owner the client sends
// is dropped before it gets here.
type StudentInput struct {
	ID             int
	Name           string
	Email          string
	Course         string
	Phone          string
	Address        string
	EnrollmentDate *time.Time
}

var (
	errStudentNotFound = apperr.NotFound("Student not found")
	errStudentRequired = apperr.Validation("Name, email and course are required")
)

type StudentService struct {
	students StudentStore
	clock    clock.Clock
	log      *slog.Logger
}

func NewStudentService(students StudentStore, c clock.Clock, log *slog.Logger) *StudentService {
	if c == nil {
		c = clock.Real()
	}
	return &StudentService{students: students, clock: c, log: log}
}

func (in *StudentInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Course = strings.TrimSpace(in.Course)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
}

func (in *StudentInput) complete() bool {
	return in.Name != "" && in.Email != "" && in.Course != ""
}

// Create stores a new student owned by actor.
func (s *StudentService) Create(ctx context.Context, actor policy.Actor, in StudentInput) (*entity.Student, error) {
	in.normalize()
	if !in.complete() {
		return nil, errStudentRequired
	}

	enrolled := s.clock.Now()
	if in.EnrollmentDate != nil && !in.EnrollmentDate.IsZero() {
		enrolled = *in.EnrollmentDate
	}

	st := &entity.Student{
		Name:           in.Name,
		Email:          in.Email,
		Course:         in.Course,
		Phone:          in.Phone,
		Address:        in.Address,
		EnrollmentDate: enrolled,
		UserID:         actor.UserID,
	}
	if err := s.students.Create(ctx, st); err != nil {
		if repository.IsUnique(err, "") {
			return nil, apperr.Validation("Failed to add student. Email might already exist.")
		}
		var ce *repository.ConstraintError
		if errors.As(err, &ce) && ce.Kind == repository.ConstraintForeignKey {
			return nil, apperr.Validation("Owner account does not exist")
		}
		return nil, apperr.Internal(fmt.Errorf("create student: %w", err))
	}

	s.log.Info("student created", "student_id", st.ID, "owner_id", st.UserID)
	return st, nil
}

// List returns the students actor is allowed to see.
func (s *StudentService) List(ctx context.Context, actor policy.Actor) ([]*entity.Student, error) {
	students, err := s.students.List(ctx, policy.ListScope(actor))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list students: %w", err))
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, actor policy.Actor, id int) (*entity.Student, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(actor, st.UserID) {
		return nil, apperr.Forbidden("You don't have permission to view this student")
	}
	return st, nil
}

// Update overwrites the mutable fields of the student identified by in.ID.
// Permission is judged against the stored owner, which never changes.
func (s *StudentService) Update(ctx context.Context, actor policy.Actor, in StudentInput) (*entity.Student, error) {
	existing, err := s.load(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(actor, existing.UserID) {
		return nil, apperr.Forbidden("You don't have permission to update this student")
	}

	in.normalize()
	if !in.complete() {
		return nil, errStudentRequired
	}

	existing.Name = in.Name
	existing.Email = in.Email
	existing.Course = in.Course
	existing.Phone = in.Phone
	existing.Address = in.Address
	if in.EnrollmentDate != nil && !in.EnrollmentDate.IsZero() {
		existing.EnrollmentDate = *in.EnrollmentDate
	}

	if err := s.students.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// Deleted between the read and the write.
			return nil, errStudentNotFound
		case repository.IsUnique(err, ""):
			return nil, apperr.Validation("Failed to update student. Email might already exist.")
		}
		return nil, apperr.Internal(fmt.Errorf("update student %d: %w", in.ID, err))
	}

	s.log.Info("student updated", "student_id", existing.ID, "actor_id", actor.UserID)
	return existing, nil
}

func (s *StudentService) Delete(ctx context.Context, actor policy.Actor, id int) error {
	st, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanAccess(actor, st.UserID) {
		return apperr.Forbidden("You don't have permission to delete this student")
	}

	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errStudentNotFound
		}
		return apperr.Internal(fmt.Errorf("delete student %d: %w", id, err))
	}

	s.log.Info("student deleted", "student_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *StudentService) load(ctx context.Context, id int) (*entity.Student, error) {
	if id <= 0 {
		return nil, errStudentNotFound
	}
	st, err := s.students.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errStudentNotFound
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load student %d: %w", id, err))
	}
	return st, nil
}
