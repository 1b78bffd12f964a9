package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// ErrInvalidToken covers every token verification failure. Bad
// signature, expired, malformed, and wrong kind all collapse into the
// same error so a caller cannot probe which check failed.
var ErrInvalidToken = errors.New("invalid token")

// TokenServiceConfig holds configuration for TokenService
type TokenServiceConfig struct {
	JWTSecret       string
	StudentTokenTTL time.Duration
	AdminTokenTTL   time.Duration
}

// TokenService issues and verifies session tokens for the two
// credentialing domains. Student and admin tokens are signed with the
// same secret but carry a kind claim; verification is kind-checked so
// the two domains stay isolated.
type TokenService struct {
	config *TokenServiceConfig
	now    func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(config *TokenServiceConfig) *TokenService {
	if config.StudentTokenTTL == 0 {
		config.StudentTokenTTL = 7 * 24 * time.Hour
	}
	if config.AdminTokenTTL == 0 {
		config.AdminTokenTTL = 24 * time.Hour
	}
	return &TokenService{
		config: config,
		now:    time.Now,
	}
}

// IssueStudentToken signs a session token for a student
func (s *TokenService) IssueStudentToken(student *domain.Student) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   student.ID,
		"kind":  string(domain.KindStudent),
		"email": student.Email,
		"name":  student.Name,
		"tier":  string(student.Tier),
		"exp":   now.Add(s.config.StudentTokenTTL).Unix(),
		"iat":   now.Unix(),
	})
	return token.SignedString([]byte(s.config.JWTSecret))
}

// IssueAdminToken signs a session token for the admin
func (s *TokenService) IssueAdminToken(admin *domain.AdminPrincipal) (string, error) {
	role := admin.Role
	if role == "" {
		role = "admin"
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"kind": string(domain.KindAdmin),
		"role": role,
		"exp":  now.Add(s.config.AdminTokenTTL).Unix(),
		"iat":  now.Unix(),
	})
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyStudentToken verifies a student session token and reconstructs
// the principal
func (s *TokenService) VerifyStudentToken(tokenString string) (*domain.StudentPrincipal, error) {
	claims, err := s.verify(tokenString, domain.KindStudent)
	if err != nil {
		return nil, err
	}

	id, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if id == "" || email == "" {
		return nil, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	tier, _ := claims["tier"].(string)

	return &domain.StudentPrincipal{
		ID:    id,
		Email: email,
		Name:  name,
		Tier:  domain.Tier(tier),
	}, nil
}

// VerifyAdminToken verifies an admin session token and reconstructs
// the principal
func (s *TokenService) VerifyAdminToken(tokenString string) (*domain.AdminPrincipal, error) {
	claims, err := s.verify(tokenString, domain.KindAdmin)
	if err != nil {
		return nil, err
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return nil, ErrInvalidToken
	}

	return &domain.AdminPrincipal{Role: role}, nil
}

func (s *TokenService) verify(tokenString string, kind domain.TokenKind) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if k, _ := claims["kind"].(string); k != string(kind) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
