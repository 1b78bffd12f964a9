package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/dto"
	"github.com/Moe-hub814/Academy/internal/middleware"
	"github.com/Moe-hub814/Academy/internal/service"
	"github.com/Moe-hub814/Academy/pkg/response"
)

// ProgressHandler handles the student-facing progress endpoints. Both
// run behind RequireStudent, so the access gate has already passed.
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Get returns the authenticated student's progress summary
// GET /api/v1/progress
func (h *ProgressHandler) Get(c *gin.Context) {
	student := middleware.GetStudent(c)
	if student == nil {
		response.Unauthorized(c, "Authentication required")
		return
	}

	summary, err := h.progressService.GetSummary(c.Request.Context(), student.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, summary)
}

// Update applies a partial update to one module. Reading progress only
// needs to pass the access gate; writing it needs a settled active
// subscription, so pending accounts are read-only here.
// PATCH /api/v1/progress
func (h *ProgressHandler) Update(c *gin.Context) {
	student := middleware.GetStudent(c)
	if student == nil {
		response.Unauthorized(c, "Authentication required")
		return
	}
	if student.SubscriptionStatus != domain.SubscriptionActive {
		response.Error(c, http.StatusForbidden, "SUBSCRIPTION_NOT_ACTIVE",
			"An active subscription is required to update progress", "")
		return
	}

	var req dto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	progress, err := h.progressService.Update(c.Request.Context(), student.ID, req.ModuleNumber, &service.UpdateProgressRequest{
		Completed:        req.Completed,
		TimeSpentMinutes: req.TimeSpentMinutes,
	})
	if err != nil {
		if errors.Is(err, service.ErrModuleOutOfRange) {
			response.BadRequest(c, "module number out of range")
			return
		}
		if errors.Is(err, service.ErrProgressNotFound) {
			response.NotFound(c, "Progress not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, progress)
}
