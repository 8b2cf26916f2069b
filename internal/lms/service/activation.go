package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/cryptox"
	"github.com/aussiebroadwan/lms/pkg/idx"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// ActivationService turns a pending registration into an account once the
// emailed code is confirmed. Tickets are not stored; they are single use only
// in the sense that a second activation hits the email uniqueness check.
type ActivationService struct {
	Tokens *TokenIssuer
	Store  store.Store
}

// CreateActivationTicket draws a code and signs it together with pending.
func (s *ActivationService) CreateActivationTicket(pending domain.PendingUser) (domain.ActivationTicket, error) {
	code, err := cryptox.GenerateActivationCode()
	if err != nil {
		return domain.ActivationTicket{}, err
	}

	token, err := s.Tokens.IssueActivationToken(pending, code)
	if err != nil {
		return domain.ActivationTicket{}, err
	}

	return domain.ActivationTicket{Token: token, Code: code}, nil
}

// Activate verifies ticket and code and creates the account.
func (s *ActivationService) Activate(ctx context.Context, ticket, code string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Verify the ticket.
	claims, err := s.Tokens.VerifyActivationToken(ticket)
	if err != nil {
		log.Info("activation ticket rejected", slog.Any("error", err))
		return domain.User{}, err
	}

	// 2. Compare the submitted code.
	if subtle.ConstantTimeCompare([]byte(claims.ActivationCode), []byte(code)) != 1 {
		log.Info("activation code mismatch", slog.String("email", claims.User.Email))
		return domain.User{}, ErrCodeMismatch
	}

	pending := claims.User
	if pending.Email == "" || pending.Name == "" {
		return domain.User{}, ErrInvalidToken
	}

	// 3. Someone may have claimed the email since registration.
	if _, err := s.Store.Users().GetUserByEmail(ctx, pending.Email); err == nil {
		return domain.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to look up email", slog.Any("error", err))
		return domain.User{}, err
	}

	// 4. Create the account.
	now := s.Tokens.Now().UTC()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         domain.RoleUser,
		IsVerified:   true,
		Courses:      []domain.CourseRef{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateEmail
		}
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user activated", slog.String("user_id", user.ID))
	return user, nil
}
