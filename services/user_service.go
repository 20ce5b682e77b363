package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fleetledger/auth"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/utils"
)

// OTPStore issues and checks one-time login codes.
type OTPStore interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) error
}

// TokenConfig holds the signing secret and token lifetimes.
type TokenConfig struct {
	Secret       string
	TokenTTL     time.Duration
	RoleTokenTTL time.Duration
}

// UserService handles OTP login, profiles and delegated roles.
type UserService struct {
	users  repository.UserRepository
	otp    OTPStore
	sms    auth.SMSSender
	tokens TokenConfig
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, otp OTPStore, sms auth.SMSSender, tokens TokenConfig, logger *slog.Logger) *UserService {
	return &UserService{users: users, otp: otp, sms: sms, tokens: tokens, logger: logger}
}

// LoginResult is returned after a successful OTP check.
type LoginResult struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	NewUser bool         `json:"newUser"`
}

// SendOTP issues a login code and sends it by SMS.
func (s *UserService) SendOTP(ctx context.Context, phone string) error {
	code, err := s.otp.Issue(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.sms.Send(ctx, phone, fmt.Sprintf("%s is your login code. It expires soon; do not share it.", code)); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP checks the code and signs the user in, creating an owner account
// on first login.
func (s *UserService) VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error) {
	if err := s.otp.Verify(ctx, phone, code); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	created := false
	if user == nil {
		user = &models.User{
			UserID:    utils.NewID("user"),
			Phone:     phone,
			Role:      models.RoleOwner,
			Delegates: []models.Delegate{},
			CreatedAt: timeNow(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			if !errors.Is(err, repository.ErrPhoneTaken) {
				return nil, fmt.Errorf("create user: %w", err)
			}
			// lost a race with a parallel first login
			if user, err = s.users.GetUserByPhone(ctx, phone); err != nil || user == nil {
				return nil, fmt.Errorf("load user: %w", err)
			}
		} else {
			created = true
			s.logger.Info("user registered", "user_id", user.UserID)
		}
	}

	token, err := auth.GenerateJWT(auth.Claims{UserID: user.UserID, Phone: user.Phone, Role: models.RoleOwner}, s.tokens.Secret, s.tokens.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user, NewUser: created}, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user", userID)
	}
	return user, nil
}

// UpdateProfile changes the name and company details printed on invoices.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd *models.User) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = upd.Name
	user.CompanyName = upd.CompanyName
	user.Address = upd.Address
	user.GSTNumber = upd.GSTNumber
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// GrantRole lets another phone number act on this account as a driver or
// accountant. Granting again replaces the previous role.
func (s *UserService) GrantRole(ctx context.Context, ownerID string, d models.Delegate) (*models.User, error) {
	if d.Role != models.RoleDriver && d.Role != models.RoleAccountant {
		return nil, invalid("role must be %s or %s", models.RoleDriver, models.RoleAccountant)
	}
	owner, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.Phone == d.Phone {
		return nil, invalid("cannot grant a role to yourself")
	}
	kept := []models.Delegate{}
	for _, existing := range owner.Delegates {
		if existing.Phone != d.Phone {
			kept = append(kept, existing)
		}
	}
	owner.Delegates = append(kept, d)
	if err := s.users.UpdateUser(ctx, owner); err != nil {
		return nil, fmt.Errorf("grant role: %w", err)
	}
	return owner, nil
}

func (s *UserService) RevokeRole(ctx context.Context, ownerID, phone string) (*models.User, error) {
	owner, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	kept := []models.Delegate{}
	for _, d := range owner.Delegates {
		if d.Phone != phone {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(owner.Delegates) {
		return nil, notFound("role for", phone)
	}
	owner.Delegates = kept
	if err := s.users.UpdateUser(ctx, owner); err != nil {
		return nil, fmt.Errorf("revoke role: %w", err)
	}
	return owner, nil
}

// DelegateRole returns the role ownerID currently grants to phone. ok is
// false once the owner is gone or the grant was revoked.
func (s *UserService) DelegateRole(ctx context.Context, ownerID, phone string) (string, bool, error) {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil || owner == nil {
		return "", false, err
	}
	for _, d := range owner.Delegates {
		if d.Phone == phone {
			return d.Role, true, nil
		}
	}
	return "", false, nil
}

// DelegatedAccount is an account the caller may switch into.
type DelegatedAccount struct {
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	CompanyName string `json:"company"`
	Role        string `json:"role"`
}

// DelegatedAccounts lists the accounts that granted phone a role.
func (s *UserService) DelegatedAccounts(ctx context.Context, phone string) ([]DelegatedAccount, error) {
	owners, err := s.users.FindOwnersByDelegate(ctx, phone)
	if err != nil {
		return nil, err
	}
	out := []DelegatedAccount{}
	for _, o := range owners {
		for _, d := range o.Delegates {
			if d.Phone == phone {
				out = append(out, DelegatedAccount{OwnerID: o.UserID, Name: o.Name, CompanyName: o.CompanyName, Role: d.Role})
			}
		}
	}
	return out, nil
}

// SwitchRole issues a role token letting the caller act on ownerID with the
// role the owner granted to the caller's phone.
func (s *UserService) SwitchRole(ctx context.Context, caller *auth.Claims, ownerID string) (string, string, error) {
	owner, err := s.Get(ctx, ownerID)
	if err != nil {
		return "", "", err
	}
	for _, d := range owner.Delegates {
		if d.Phone != caller.Phone {
			continue
		}
		token, err := auth.GenerateJWT(auth.Claims{
			UserID:  caller.UserID,
			Phone:   caller.Phone,
			Role:    d.Role,
			OwnerID: ownerID,
		}, s.tokens.Secret, s.tokens.RoleTokenTTL)
		if err != nil {
			return "", "", err
		}
		return token, d.Role, nil
	}
	return "", "", fmt.Errorf("no role on account %s: %w", ownerID, ErrForbidden)
}
