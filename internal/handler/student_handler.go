package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/middleware"
	"studentrecords/internal/service"
)

type StudentHandler struct {
	students *service.StudentService
	log      *slog.Logger
}

func NewStudentHandler(students *service.StudentService, log *slog.Logger) *StudentHandler {
	return &StudentHandler{students: students, log: log}
}

// Date accepts either a full RFC 3339 timestamp or a plain YYYY-MM-DD day.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// studentRequest is the client payload. userId is deliberately absent:
// ownership comes from the session only.
type studentRequest struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Course         string `json:"course"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	EnrollmentDate *Date  `json:"enrollmentDate"`
}

func (r studentRequest) input() service.StudentInput {
	in := service.StudentInput{
		ID:      r.ID,
		Name:    r.Name,
		Email:   r.Email,
		Course:  r.Course,
		Phone:   r.Phone,
		Address: r.Address,
	}
	if r.EnrollmentDate != nil && !r.EnrollmentDate.IsZero() {
		t := r.EnrollmentDate.Time
		in.EnrollmentDate = &t
	}
	return in
}

func (h *StudentHandler) List(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	students, err := h.students.List(c.Request.Context(), sess.Actor())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *StudentHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	sess := middleware.CurrentSession(c)
	st, err := h.students.Get(c.Request.Context(), sess.Actor(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StudentHandler) Create(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	sess := middleware.CurrentSession(c)
	st, err := h.students.Create(c.Request.Context(), sess.Actor(), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusCreated, "Student added successfully", gin.H{"student": st})
}

func (h *StudentHandler) Update(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	sess := middleware.CurrentSession(c)
	st, err := h.students.Update(c.Request.Context(), sess.Actor(), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Student updated successfully", gin.H{"student": st})
}

func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "Student ID is required")
		return
	}

	sess := middleware.CurrentSession(c)
	if err := h.students.Delete(c.Request.Context(), sess.Actor(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Student deleted successfully", nil)
}
