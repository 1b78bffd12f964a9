package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/dto"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/internal/service"
	"github.com/Moe-hub814/Academy/pkg/response"
)

// StudentHandler handles the admin-facing student endpoints
type StudentHandler struct {
	studentService *service.StudentService
	authService    *service.AuthService
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(studentService *service.StudentService, authService *service.AuthService) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		authService:    authService,
	}
}

// List returns a filtered page of students
// GET /api/v1/students
func (h *StudentHandler) List(c *gin.Context) {
	var query dto.ListStudentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	filter := repository.StudentFilter{
		Search: query.Search,
		Tier:   domain.Tier(query.Tier),
		Status: domain.SubscriptionStatus(query.Status),
		Page:   query.Page,
		Limit:  query.Limit,
	}
	if query.Tier != "" && !filter.Tier.Valid() {
		response.BadRequest(c, "invalid tier filter")
		return
	}
	if query.Status != "" && !filter.Status.Valid() {
		response.BadRequest(c, "invalid status filter")
		return
	}

	students, total, err := h.studentService.List(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	response.SuccessWithMeta(c, students, &dto.ListMeta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// Get returns one student with progress and payment history
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	detail, err := h.studentService.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, "Student not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, detail)
}

// Create provisions a student account
// POST /api/v1/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Tier != "" && !domain.Tier(req.Tier).Valid() {
		response.BadRequest(c, "invalid tier")
		return
	}

	student, generated, err := h.authService.CreateStudent(c.Request.Context(), &service.CreateStudentRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Tier:     domain.Tier(req.Tier),
	})
	if err != nil {
		if errors.Is(err, service.ErrStudentAlreadyExists) {
			response.Conflict(c, "Student with this email already exists")
			return
		}
		response.InternalError(c, err)
		return
	}

	response.Created(c, &dto.CreateStudentResponse{
		Student:           student,
		GeneratedPassword: generated,
	})
}

// Update applies admin edits to a student
// PATCH /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	update := &service.UpdateStudentRequest{Name: req.Name}
	if req.Tier != nil {
		tier := domain.Tier(*req.Tier)
		if !tier.Valid() {
			response.BadRequest(c, "invalid tier")
			return
		}
		update.Tier = &tier
	}
	if req.SubscriptionStatus != nil {
		status := domain.SubscriptionStatus(*req.SubscriptionStatus)
		if !status.Valid() {
			response.BadRequest(c, "invalid subscription status")
			return
		}
		update.SubscriptionStatus = &status
	}

	student, err := h.studentService.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, "Student not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, student)
}

// Delete revokes a student's access. The row is kept with status
// canceled; cancelBilling=true also cancels their processor
// subscription.
// DELETE /api/v1/students/:id?cancelBilling=true
func (h *StudentHandler) Delete(c *gin.Context) {
	cancelBilling := c.Query("cancelBilling") == "true"
	err := h.studentService.Revoke(c.Request.Context(), c.Param("id"), cancelBilling)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, "Student not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"revoked": true})
}

// Stats returns the admin dashboard aggregates
// GET /api/v1/admin/stats
func (h *StudentHandler) Stats(c *gin.Context) {
	stats, err := h.studentService.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}
