package dto

import "github.com/Moe-hub814/Academy/internal/domain"

// LoginRequest is the credential payload for student and admin login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateStudentRequest is the admin payload for provisioning a student
// account. Password is optional; a missing password is generated and
// returned once in the response.
type CreateStudentRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
	Tier     string `json:"tier"`
}

// CreateStudentResponse returns the new account plus the generated
// password when the admin did not supply one
type CreateStudentResponse struct {
	Student           *domain.Student `json:"student"`
	GeneratedPassword string          `json:"generated_password,omitempty"`
}

// UpdateStudentRequest is the admin payload for editing a student.
// Omitted fields are left untouched.
type UpdateStudentRequest struct {
	Name               *string `json:"name"`
	Tier               *string `json:"tier"`
	SubscriptionStatus *string `json:"subscription_status"`
}

// UpdateProgressRequest is the student payload for one module update.
// TimeSpentMinutes is added to the stored total.
type UpdateProgressRequest struct {
	ModuleNumber     int   `json:"module_number" binding:"required"`
	Completed        *bool `json:"completed"`
	TimeSpentMinutes *int  `json:"time_spent_minutes"`
}

// ListStudentsQuery is the admin list filter, bound from query params
type ListStudentsQuery struct {
	Search string `form:"search"`
	Tier   string `form:"tier"`
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

// ListMeta is the pagination envelope for list responses
type ListMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// SessionResponse reports the authenticated identity for check
// endpoints
type SessionResponse struct {
	Kind    string          `json:"kind"`
	Student *domain.Student `json:"student,omitempty"`
	Role    string          `json:"role,omitempty"`
}
