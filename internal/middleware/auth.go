package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/internal/service"
	"github.com/Moe-hub814/Academy/pkg/response"
)

// Session cookie names, one per credentialing domain
const (
	CookieStudentToken = "student_token"
	CookieAdminToken   = "admin_token"
)

// Context keys set by the auth middlewares
const (
	ContextStudent        = "student"
	ContextAdminPrincipal = "admin_principal"
)

// RequireStudent authenticates the student session cookie and applies
// the access gate. The token only identifies the student; subscription
// status is re-read from the store on every request so a billing event
// takes effect before the token expires.
func RequireStudent(tokens *service.TokenService, studentRepo repository.StudentRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieStudentToken)
		if err != nil || token == "" {
			response.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		principal, err := tokens.VerifyStudentToken(token)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired session")
			c.Abort()
			return
		}

		student, err := studentRepo.GetByID(c.Request.Context(), principal.ID)
		if err != nil {
			response.InternalError(c, err)
			c.Abort()
			return
		}
		if student == nil {
			response.Unauthorized(c, "Account no longer exists")
			c.Abort()
			return
		}

		if err := service.CheckAccess(student); err != nil {
			AbortForAccessError(c, err)
			return
		}

		c.Set(ContextStudent, student)
		c.Next()
	}
}

// RequireAdmin authenticates the admin session cookie
func RequireAdmin(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieAdminToken)
		if err != nil || token == "" {
			response.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		principal, err := tokens.VerifyAdminToken(token)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired session")
			c.Abort()
			return
		}

		c.Set(ContextAdminPrincipal, principal)
		c.Next()
	}
}

// AbortForAccessError writes the HTTP mapping of an access gate
// failure: 402 for past due with the billing customer reference, 403
// for canceled.
func AbortForAccessError(c *gin.Context, err error) {
	var pastDue *service.PastDueError
	if errors.As(err, &pastDue) {
		response.Error(c, http.StatusPaymentRequired, "PAYMENT_PAST_DUE",
			"Payment is past due", pastDue.BillingCustomerID)
		c.Abort()
		return
	}
	if errors.Is(err, service.ErrSubscriptionCanceled) {
		response.Error(c, http.StatusForbidden, "SUBSCRIPTION_CANCELED",
			"Subscription has been canceled", "")
		c.Abort()
		return
	}
	response.InternalError(c, err)
	c.Abort()
}

// GetStudent returns the authenticated student set by RequireStudent
func GetStudent(c *gin.Context) *domain.Student {
	v, ok := c.Get(ContextStudent)
	if !ok {
		return nil
	}
	student, _ := v.(*domain.Student)
	return student
}

// GetAdmin returns the authenticated admin set by RequireAdmin
func GetAdmin(c *gin.Context) *domain.AdminPrincipal {
	v, ok := c.Get(ContextAdminPrincipal)
	if !ok {
		return nil
	}
	principal, _ := v.(*domain.AdminPrincipal)
	return principal
}
