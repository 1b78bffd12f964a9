package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Moe-hub814/Academy/internal/dto"
	"github.com/Moe-hub814/Academy/internal/middleware"
	"github.com/Moe-hub814/Academy/internal/service"
	"github.com/Moe-hub814/Academy/pkg/response"
)

// AuthHandlerConfig holds cookie settings for AuthHandler
type AuthHandlerConfig struct {
	StudentTokenTTL time.Duration
	AdminTokenTTL   time.Duration
	SecureCookies   bool
}

// AuthHandler handles authentication HTTP requests for both session
// domains
type AuthHandler struct {
	authService *service.AuthService
	config      *AuthHandlerConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, config *AuthHandlerConfig) *AuthHandler {
	if config.StudentTokenTTL == 0 {
		config.StudentTokenTTL = 7 * 24 * time.Hour
	}
	if config.AdminTokenTTL == 0 {
		config.AdminTokenTTL = 24 * time.Hour
	}
	return &AuthHandler{authService: authService, config: config}
}

// StudentLogin handles student login
// POST /api/v1/auth/student/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	student, token, err := h.authService.AuthenticateStudent(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", "")
			return
		}
		var pastDue *service.PastDueError
		if errors.As(err, &pastDue) {
			response.Error(c, http.StatusPaymentRequired, "PAYMENT_PAST_DUE",
				"Payment is past due", pastDue.BillingCustomerID)
			return
		}
		if errors.Is(err, service.ErrSubscriptionCanceled) {
			response.Error(c, http.StatusForbidden, "SUBSCRIPTION_CANCELED",
				"Subscription has been canceled", "")
			return
		}
		response.InternalError(c, err)
		return
	}

	h.setSessionCookie(c, middleware.CookieStudentToken, token, h.config.StudentTokenTTL)
	response.Success(c, student)
}

// StudentLogout clears the student session
// POST /api/v1/auth/student/logout
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	h.clearSessionCookie(c, middleware.CookieStudentToken)
	response.Success(c, gin.H{"logged_out": true})
}

// StudentCheck reports the authenticated student session. Runs behind
// RequireStudent, so reaching it means the token verified and the gate
// passed.
// GET /api/v1/auth/student/check
func (h *AuthHandler) StudentCheck(c *gin.Context) {
	student := middleware.GetStudent(c)
	if student == nil {
		response.Unauthorized(c, "Authentication required")
		return
	}
	response.Success(c, &dto.SessionResponse{
		Kind:    "student",
		Student: student,
	})
}

// AdminLogin handles admin login
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.authService.AuthenticateAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", "")
			return
		}
		response.InternalError(c, err)
		return
	}

	h.setSessionCookie(c, middleware.CookieAdminToken, token, h.config.AdminTokenTTL)
	response.Success(c, gin.H{"role": "admin"})
}

// AdminLogout clears the admin session
// POST /api/v1/auth/admin/logout
func (h *AuthHandler) AdminLogout(c *gin.Context) {
	h.clearSessionCookie(c, middleware.CookieAdminToken)
	response.Success(c, gin.H{"logged_out": true})
}

// AdminCheck reports the authenticated admin session
// GET /api/v1/auth/admin/check
func (h *AuthHandler) AdminCheck(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		response.Unauthorized(c, "Authentication required")
		return
	}
	response.Success(c, &dto.SessionResponse{
		Kind: "admin",
		Role: admin.Role,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, name, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(ttl.Seconds()), "/", "", h.config.SecureCookies, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.config.SecureCookies, true)
}
