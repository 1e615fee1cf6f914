// Package service holds the business logic for credentials, habits and tags.
// Repositories, the hasher and the token issuer are injected through the
// interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/models"
)

// UserRepository defines the persistence operations required by CredentialService.
type UserRepository interface {
	// CreateUser inserts a user; duplicates yield db.ErrDuplicateKey.
	CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(id models.Identity) (string, error)
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  models.PublicUser
	Token string
}

const msgInvalidCredentials = "Invalid email or password"

// CredentialService implements registration, login, password change and
// profile management.
type CredentialService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *CredentialService {
	return &CredentialService{users: users, hasher: hasher, tokens: tokens}
}

func userConflictMessage(err error) string {
	switch {
	case db.ViolatesColumn(err, "email"):
		return "Email already registered"
	case db.ViolatesColumn(err, "username"):
		return "Username already taken"
	default:
		return "User already exists"
	}
}

func (s *CredentialService) issue(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, msgInternal, err)
	}
	return &AuthResult{User: u.Public(), Token: token}, nil
}

// Register hashes the password, stores the user and issues a token.
// A taken email or username is apperr.Conflict.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, msgInternal, err)
	}

	u, err := s.users.CreateUser(ctx, models.NewUser{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		return nil, translate(err, "User not found", userConflictMessage(err))
	}
	return s.issue(u)
}

// Login checks the email and password and issues a token. Unknown email
// and wrong password both yield apperr.InvalidCredentials.
func (s *CredentialService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		// Spend the same hashing time as a real check.
		s.burnVerify(ctx, password)
		return nil, apperr.New(apperr.InvalidCredentials, msgInvalidCredentials)
	}
	if err != nil {
		return nil, translate(err, msgInvalidCredentials, msgInternal)
	}

	ok, err := s.hasher.Verify(ctx, password, u.PasswordHash)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, msgInternal, err)
	}
	if !ok {
		return nil, apperr.New(apperr.InvalidCredentials, msgInvalidCredentials)
	}
	return s.issue(u)
}

func (s *CredentialService) burnVerify(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		// Detached from ctx: a cancelled first caller must not leave the
		// dummy hash empty for the life of the process.
		s.dummyHash, _ = s.hasher.Hash(context.Background(), "not-a-real-password")
	})
	_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
}

// ChangePassword replaces the password of userID after checking the old
// one. Tokens issued before the change stay valid until they expire.
func (s *CredentialService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return translate(err, "User not found", msgInternal)
	}

	ok, err := s.hasher.Verify(ctx, oldPassword, u.PasswordHash)
	if err != nil {
		return apperr.Wrap(apperr.Internal, msgInternal, err)
	}
	if !ok {
		return apperr.New(apperr.InvalidCredentials, "Your old password is incorrect!")
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return apperr.Wrap(apperr.Internal, msgInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return translate(fmt.Errorf("change password: %w", err), "User not found", msgInternal)
	}
	return nil
}

// Profile returns the public profile of userID.
func (s *CredentialService) Profile(ctx context.Context, userID string) (*models.PublicUser, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User not found", msgInternal)
	}
	p := u.Public()
	return &p, nil
}

// UpdateProfile changes profile fields of userID.
func (s *CredentialService) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.PublicUser, error) {
	u, err := s.users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, translate(err, "User not found", userConflictMessage(err))
	}
	p := u.Public()
	return &p, nil
}

// ListUsers returns all public profiles.
func (s *CredentialService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, translate(err, "User not found", msgInternal)
	}
	return users, nil
}
