package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/metrics"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/pkg/telemetry"
)

var (
	ErrStudentAlreadyExists = errors.New("student already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrStudentNotFound      = errors.New("student not found")
)

const passwordLength = 12

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	AdminEmail        string
	AdminPasswordHash string
	BcryptCost        int
	ModuleCount       int
}

// AuthService handles student and admin authentication and student
// account provisioning
type AuthService struct {
	studentRepo    repository.StudentRepository
	progressRepo   repository.ProgressRepository
	enrollmentRepo repository.EnrollmentRepository
	tokens         *TokenService
	config         *AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	studentRepo repository.StudentRepository,
	progressRepo repository.ProgressRepository,
	enrollmentRepo repository.EnrollmentRepository,
	tokens *TokenService,
	config *AuthServiceConfig,
) *AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = 12
	}
	if config.ModuleCount == 0 {
		config.ModuleCount = 8
	}
	return &AuthService{
		studentRepo:    studentRepo,
		progressRepo:   progressRepo,
		enrollmentRepo: enrollmentRepo,
		tokens:         tokens,
		config:         config,
	}
}

// AuthenticateStudent verifies student credentials, applies the access
// gate, and issues a session token. Gate failures surface unchanged so
// the handler can distinguish past-due from canceled; the student's
// stored status is never modified here.
func (s *AuthService) AuthenticateStudent(ctx context.Context, email, password string) (*domain.Student, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.authenticate_student")
	defer span.End()

	student, err := s.studentRepo.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	if student == nil {
		span.SetStatus(codes.Error, "invalid credentials")
		metrics.RecordLogin(ctx, "student", false)
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		metrics.RecordLogin(ctx, "student", false)
		return nil, "", ErrInvalidCredentials
	}

	if err := CheckAccess(student); err != nil {
		span.SetStatus(codes.Error, "access denied")
		return nil, "", err
	}

	token, err := s.tokens.IssueStudentToken(student)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if err := s.studentRepo.UpdateLastLogin(ctx, student.ID, time.Now().UTC()); err != nil {
		// Login still succeeds; the timestamp is advisory
		span.RecordError(err)
	}

	span.SetAttributes(attribute.String("student_id", student.ID))
	span.SetStatus(codes.Ok, "")
	metrics.RecordLogin(ctx, "student", true)
	return student, token, nil
}

// AuthenticateAdmin verifies admin credentials against the configured
// account and issues an admin session token. When no admin account is
// configured every attempt fails.
func (s *AuthService) AuthenticateAdmin(ctx context.Context, email, password string) (string, error) {
	_, span := telemetry.StartSpan(ctx, "service.auth.authenticate_admin")
	defer span.End()

	if s.config.AdminEmail == "" || s.config.AdminPasswordHash == "" {
		span.SetStatus(codes.Error, "admin account not configured")
		return "", ErrInvalidCredentials
	}

	emailMatch := subtle.ConstantTimeCompare(
		[]byte(domain.NormalizeEmail(email)),
		[]byte(domain.NormalizeEmail(s.config.AdminEmail)),
	) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password))
	if !emailMatch || passwordErr != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		metrics.RecordLogin(ctx, "admin", false)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAdminToken(&domain.AdminPrincipal{Role: "admin"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetStatus(codes.Ok, "")
	metrics.RecordLogin(ctx, "admin", true)
	return token, nil
}

// CreateStudentRequest carries the fields for provisioning a student
// account
type CreateStudentRequest struct {
	Email    string
	Name     string
	Password string
	Tier     domain.Tier
}

// CreateStudent provisions a student account with the full progress
// set. When the email has a staged enrollment from a completed
// checkout, the staged tier and billing references are adopted and the
// staged record consumed. Returns the student and the generated
// password when none was supplied.
func (s *AuthService) CreateStudent(ctx context.Context, req *CreateStudentRequest) (*domain.Student, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.create_student")
	defer span.End()

	span.SetAttributes(attribute.String("email", req.Email))

	exists, err := s.studentRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	if exists {
		span.SetStatus(codes.Error, "student already exists")
		return nil, "", ErrStudentAlreadyExists
	}

	password := req.Password
	generated := ""
	if password == "" {
		password, err = generatePassword(passwordLength)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, "", err
		}
		generated = password
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	now := time.Now().UTC()
	student := &domain.Student{
		ID:                 uuid.New().String(),
		Email:              domain.NormalizeEmail(req.Email),
		PasswordHash:       string(hash),
		Name:               req.Name,
		Tier:               req.Tier,
		SubscriptionStatus: domain.SubscriptionActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !student.Tier.Valid() {
		student.Tier = domain.TierMentorship
	}

	staged, err := s.enrollmentRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	if staged != nil {
		student.Tier = staged.Tier
		student.BillingCustomerID = staged.BillingCustomerID
		student.BillingSubscriptionID = staged.BillingSubscriptionID
		if staged.Name != "" && req.Name == "" {
			student.Name = staged.Name
		}
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if err := s.progressRepo.CreateBatch(ctx, domain.NewProgressSet(student.ID, s.config.ModuleCount)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if staged != nil {
		if err := s.enrollmentRepo.DeleteByEmail(ctx, req.Email); err != nil {
			// Account exists; a leftover staged row is harmless
			span.RecordError(err)
		}
	}

	span.SetAttributes(attribute.String("student_id", student.ID))
	span.SetStatus(codes.Ok, "")
	return student, generated, nil
}

// GetStudent retrieves a student by ID
func (s *AuthService) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.get_student")
	defer span.End()

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return student, nil
}

func generatePassword(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}
