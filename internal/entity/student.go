package entity

import "time"

type Student struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Course         string    `json:"course"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	EnrollmentDate time.Time `json:"enrollmentDate"`
	UserID         int       `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
