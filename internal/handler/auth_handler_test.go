package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/middleware"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/internal/service"
)

const testAdminPassword = "admin-password"

type authTestEnv struct {
	router      *gin.Engine
	studentRepo *repository.MemoryStudentRepository
	tokens      *service.TokenService
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	studentRepo := repository.NewMemoryStudentRepository()
	progressRepo := repository.NewMemoryProgressRepository()
	enrollmentRepo := repository.NewMemoryEnrollmentRepository()

	tokens := service.NewTokenService(&service.TokenServiceConfig{JWTSecret: "test-secret"})

	adminHash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}

	authService := service.NewAuthService(studentRepo, progressRepo, enrollmentRepo, tokens, &service.AuthServiceConfig{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(adminHash),
		BcryptCost:        bcrypt.MinCost,
		ModuleCount:       8,
	})

	h := NewAuthHandler(authService, &AuthHandlerConfig{})

	router := gin.New()
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/student/login", h.StudentLogin)
		auth.POST("/student/logout", h.StudentLogout)
		auth.GET("/student/check", middleware.RequireStudent(tokens, studentRepo), h.StudentCheck)
		auth.POST("/admin/login", h.AdminLogin)
		auth.POST("/admin/logout", h.AdminLogout)
		auth.GET("/admin/check", middleware.RequireAdmin(tokens), h.AdminCheck)
	}

	return &authTestEnv{router: router, studentRepo: studentRepo, tokens: tokens}
}

func (e *authTestEnv) seedStudent(t *testing.T, status domain.SubscriptionStatus) *domain.Student {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	student := &domain.Student{
		ID:                 "student-1",
		Email:              "alice@example.com",
		PasswordHash:       string(hash),
		Name:               "Alice",
		Tier:               domain.TierMentorship,
		SubscriptionStatus: status,
		BillingCustomerID:  "cus_123",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.studentRepo.Create(context.Background(), student); err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	return student
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_StudentLogin(t *testing.T) {
	t.Run("success sets session cookie", func(t *testing.T) {
		env := newAuthTestEnv(t)
		env.seedStudent(t, domain.SubscriptionActive)

		w := postJSON(env.router, "/api/v1/auth/student/login", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		cookie := sessionCookie(w, middleware.CookieStudentToken)
		if cookie == nil {
			t.Fatal("expected student_token cookie")
		}
		if !cookie.HttpOnly {
			t.Error("session cookie must be HttpOnly")
		}
		if cookie.SameSite != http.SameSiteLaxMode {
			t.Errorf("expected SameSite=Lax, got %v", cookie.SameSite)
		}
		if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
			t.Errorf("expected 7 day max age, got %d", cookie.MaxAge)
		}
		if _, err := env.tokens.VerifyStudentToken(cookie.Value); err != nil {
			t.Errorf("cookie token does not verify: %v", err)
		}
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		env := newAuthTestEnv(t)
		env.seedStudent(t, domain.SubscriptionActive)

		w := postJSON(env.router, "/api/v1/auth/student/login", gin.H{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("past due is 402 with billing reference", func(t *testing.T) {
		env := newAuthTestEnv(t)
		env.seedStudent(t, domain.SubscriptionPastDue)

		w := postJSON(env.router, "/api/v1/auth/student/login", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		})
		if w.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", w.Code)
		}
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Details string `json:"details"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if body.Error.Code != "PAYMENT_PAST_DUE" {
			t.Errorf("expected PAYMENT_PAST_DUE, got %q", body.Error.Code)
		}
		if body.Error.Details != "cus_123" {
			t.Errorf("expected billing reference in details, got %q", body.Error.Details)
		}
		if sessionCookie(w, middleware.CookieStudentToken) != nil {
			t.Error("past due login must not set a session cookie")
		}
	})

	t.Run("canceled is 403", func(t *testing.T) {
		env := newAuthTestEnv(t)
		env.seedStudent(t, domain.SubscriptionCanceled)

		w := postJSON(env.router, "/api/v1/auth/student/login", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		env := newAuthTestEnv(t)

		w := postJSON(env.router, "/api/v1/auth/student/login", gin.H{"email": "not-an-email"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandler_StudentCheck(t *testing.T) {
	t.Run("valid session", func(t *testing.T) {
		env := newAuthTestEnv(t)
		student := env.seedStudent(t, domain.SubscriptionActive)

		token, err := env.tokens.IssueStudentToken(student)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/student/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieStudentToken, Value: token})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("no cookie is 401", func(t *testing.T) {
		env := newAuthTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/student/check", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("status change takes effect before token expiry", func(t *testing.T) {
		env := newAuthTestEnv(t)
		student := env.seedStudent(t, domain.SubscriptionActive)

		token, err := env.tokens.IssueStudentToken(student)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Billing cancels the subscription while the cookie is live
		if err := env.studentRepo.UpdateStatus(context.Background(), student.ID, domain.SubscriptionCanceled); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/student/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieStudentToken, Value: token})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403 after cancellation, got %d", w.Code)
		}
	})

	t.Run("admin token rejected on student route", func(t *testing.T) {
		env := newAuthTestEnv(t)

		token, err := env.tokens.IssueAdminToken(&domain.AdminPrincipal{Role: "admin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/student/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieStudentToken, Value: token})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	t.Run("success sets admin cookie", func(t *testing.T) {
		env := newAuthTestEnv(t)

		w := postJSON(env.router, "/api/v1/auth/admin/login", gin.H{
			"email":    "admin@example.com",
			"password": testAdminPassword,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		cookie := sessionCookie(w, middleware.CookieAdminToken)
		if cookie == nil {
			t.Fatal("expected admin_token cookie")
		}
		if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
			t.Errorf("expected 24h max age, got %d", cookie.MaxAge)
		}

		// The cookie must open the admin check route
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/admin/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieAdminToken, Value: cookie.Value})
		check := httptest.NewRecorder()
		env.router.ServeHTTP(check, req)
		if check.Code != http.StatusOK {
			t.Errorf("expected 200 on admin check, got %d", check.Code)
		}
	})

	t.Run("wrong credentials is 401", func(t *testing.T) {
		env := newAuthTestEnv(t)

		w := postJSON(env.router, "/api/v1/auth/admin/login", gin.H{
			"email":    "admin@example.com",
			"password": "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("student token rejected on admin route", func(t *testing.T) {
		env := newAuthTestEnv(t)
		student := env.seedStudent(t, domain.SubscriptionActive)

		token, err := env.tokens.IssueStudentToken(student)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/admin/check", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieAdminToken, Value: token})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newAuthTestEnv(t)

	w := postJSON(env.router, "/api/v1/auth/student/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	cookie := sessionCookie(w, middleware.CookieStudentToken)
	if cookie == nil {
		t.Fatal("expected cleared student_token cookie")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("expected negative max age, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("expected empty cookie value, got %q", cookie.Value)
	}
}
