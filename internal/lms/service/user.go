package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/mail"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/cryptox"
	"github.com/aussiebroadwan/lms/pkg/idx"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// MinPasswordLength is the shortest password accepted at registration and on
// password change.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Roles an admin may assign.
var assignableRoles = []string{domain.RoleUser, domain.RoleAdmin}

// AccountService implements registration, login and profile management on
// top of the user store and the session manager.
type AccountService struct {
	Store      store.Store
	Sessions   *SessionManager
	Activation *ActivationService
	Mailer     mail.Sender
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NormaliseEmail trims and lowercases an address.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool { return emailPattern.MatchString(email) }

func validPassword(password string) bool {
	return len(password) >= MinPasswordLength && len(password) <= cryptox.MaxPasswordBytes
}

// Register parks the registration in an activation ticket and emails the
// code. The returned ticket is what the client sends back on activation.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	name := strings.TrimSpace(in.Name)
	email := NormaliseEmail(in.Email)
	if name == "" || !validEmail(email) || !validPassword(in.Password) {
		return "", ErrInvalidRequest
	}

	// 2. Reject a taken email early; activation checks again.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		log.Info("registration with taken email", slog.String("email", email))
		return "", ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to look up email", slog.Any("error", err))
		return "", err
	}

	// 3. Only the hash goes into the ticket.
	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return "", err
	}

	ticket, err := s.Activation.CreateActivationTicket(domain.PendingUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		log.Error("failed to create activation ticket", slog.Any("error", err))
		return "", err
	}

	// 4. Email the code.
	if err := s.Mailer.Send(ctx, mail.ActivationMessage(email, name, ticket.Code)); err != nil {
		log.Error("failed to send activation email", slog.String("email", email), slog.Any("error", err))
		return "", fmt.Errorf("send activation email: %w", err)
	}

	log.Info("registration pending activation", slog.String("email", email))
	return ticket.Token, nil
}

// Login checks the password and starts a session.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	email = NormaliseEmail(email)
	if email == "" || password == "" {
		return domain.User{}, domain.TokenPair{}, ErrInvalidRequest
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("login for unknown email", slog.String("email", email))
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	if !user.HasPassword() || cryptox.VerifyPassword(password, user.PasswordHash) != nil {
		log.Info("login with wrong password", slog.String("user_id", user.ID))
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.Sessions.StartSession(ctx, user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// SocialAuthInput is what the client reports after a third-party sign-in.
type SocialAuthInput struct {
	Email  string
	Name   string
	Avatar string
}

// SocialAuth finds or creates the account for a third-party sign-in and
// starts a session. Such accounts have no password, and an existing password
// account is never signed in this way.
func (s *AccountService) SocialAuth(ctx context.Context, in SocialAuthInput) (domain.User, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	email := NormaliseEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if !validEmail(email) || name == "" {
		return domain.User{}, domain.TokenPair{}, ErrInvalidRequest
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// The provider's email claim is not proof of ownership for an
		// account that signs in with a password.
		if user.HasPassword() {
			log.Warn("social sign-in for password account rejected", slog.String("user_id", user.ID))
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
	case errors.Is(err, store.ErrNotFound):
		user, err = s.createSocialUser(ctx, email, name, in.Avatar)
		if err != nil {
			return domain.User{}, domain.TokenPair{}, err
		}
		log.Info("social account created", slog.String("user_id", user.ID))
	default:
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.Sessions.StartSession(ctx, user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return user, pair, nil
}

func (s *AccountService) createSocialUser(ctx context.Context, email, name, avatarURL string) (domain.User, error) {
	now := s.Sessions.Tokens.Now().UTC()
	user := domain.User{
		ID:        idx.NewAt(now).String(),
		Name:      name,
		Email:     email,
		Role:      domain.RoleUser,
		Courses:   []domain.CourseRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if avatarURL = strings.TrimSpace(avatarURL); avatarURL != "" {
		user.Avatar = &domain.Avatar{URL: avatarURL}
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, err
		}
		// Lost a race with a concurrent sign-in for the same email.
		existing, err := s.Store.Users().GetUserByEmail(ctx, email)
		if err != nil {
			return domain.User{}, err
		}
		if existing.HasPassword() {
			return domain.User{}, ErrInvalidCredentials
		}
		return existing, nil
	}
	return user, nil
}

// Me returns the caller's profile, preferring the session snapshot.
func (s *AccountService) Me(ctx context.Context, id Identity) (domain.User, error) {
	if id.User != nil {
		return *id.User, nil
	}
	return s.getUser(ctx, id.UserID)
}

// ProfileInput carries the optional profile changes.
type ProfileInput struct {
	Name  string
	Email string
}

// UpdateInfo changes name and/or email and resyncs the snapshot.
func (s *AccountService) UpdateInfo(ctx context.Context, userID string, in ProfileInput) (domain.User, error) {
	log := slogx.FromContext(ctx)

	update := store.ProfileUpdate{Name: strings.TrimSpace(in.Name)}
	if in.Email != "" {
		update.Email = NormaliseEmail(in.Email)
		if !validEmail(update.Email) {
			return domain.User{}, ErrInvalidRequest
		}
	}

	current, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if update.Email != "" && update.Email != current.Email {
		if _, err := s.Store.Users().GetUserByEmail(ctx, update.Email); err == nil {
			return domain.User{}, ErrDuplicateEmail
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.User{}, err
		}
	}

	if err := s.Store.Users().UpdateProfile(ctx, userID, update); err != nil {
		return domain.User{}, s.mapStoreErr(err)
	}

	user, err := s.reloadAndResync(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	log.Info("profile updated", slog.String("user_id", userID))
	return user, nil
}

// UpdatePassword replaces the password after checking the old one.
func (s *AccountService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if oldPassword == "" || !validPassword(newPassword) {
		return domain.User{}, ErrInvalidRequest
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	// Social accounts have nothing to change.
	if !user.HasPassword() {
		return domain.User{}, ErrInvalidRequest
	}
	if cryptox.VerifyPassword(oldPassword, user.PasswordHash) != nil {
		log.Info("password change with wrong old password", slog.String("user_id", userID))
		return domain.User{}, ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return domain.User{}, s.mapStoreErr(err)
	}

	user, err = s.reloadAndResync(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	log.Info("password updated", slog.String("user_id", userID))
	return user, nil
}

// ListUsers returns every account, newest first.
func (s *AccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// UpdateRole assigns role to the user and resyncs their snapshot.
func (s *AccountService) UpdateRole(ctx context.Context, userID, role string) (domain.User, error) {
	if userID == "" || !slices.Contains(assignableRoles, role) {
		return domain.User{}, ErrInvalidRequest
	}

	if err := s.Store.Users().UpdateRole(ctx, userID, role); err != nil {
		return domain.User{}, s.mapStoreErr(err)
	}

	user, err := s.reloadAndResync(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	slogx.FromContext(ctx).Info("role updated", slog.String("user_id", userID), slog.String("role", role))
	return user, nil
}

// DeleteUser removes the account and ends its session.
func (s *AccountService) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidRequest
	}
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		return s.mapStoreErr(err)
	}
	if err := s.Sessions.EndSession(ctx, userID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", userID))
	return nil
}

func (s *AccountService) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, s.mapStoreErr(err)
	}
	return user, nil
}

func (s *AccountService) reloadAndResync(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Sessions.Resync(ctx, user); err != nil {
		slogx.FromContext(ctx).Error("failed to resync session", slog.String("user_id", userID), slog.Any("error", err))
		return domain.User{}, err
	}
	return user, nil
}

func (s *AccountService) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrDuplicateEmail
	default:
		return err
	}
}
