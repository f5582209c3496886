package app

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/user"
	"jobportal/internal/security"
)

const minPasswordLength = 6

var phonePattern = regexp.MustCompile(`^[0-9]{8}$`)

// AuthService registers users, checks credentials and issues access tokens.
type AuthService struct {
	users     user.Repository
	tokens    *security.JWTProvider
	accessTTL time.Duration
	logger    *slog.Logger
}

func NewAuthService(users user.Repository, tokens *security.JWTProvider, accessTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, accessTTL: accessTTL, logger: logger}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type AuthResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}

type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Location *string
	Skills   *[]string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "name is required"
	}
	if in.Email == "" {
		fields["email"] = "email is required"
	}
	if len(in.Password) < minPasswordLength {
		fields["password"] = "password must be at least 6 characters"
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		fields["phone"] = "phone number must be 8 digits"
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid registration", fields)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to hash password", err)
	}
	created, err := s.users.Create(ctx, user.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         user.RoleUser,
		Skills:       []string{},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", slog.String("user_id", created.ID.String()))
	return s.issue(created)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	ok, err := security.CheckPassword(account.PasswordHash, password)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to check password", err)
	}
	if !ok {
		return nil, errInvalidCredentials()
	}
	return s.issue(account)
}

func (s *AuthService) Me(ctx context.Context, userID common.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID common.UUID, update ProfileUpdate) (*user.User, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, common.NewValidationError("invalid profile", map[string]string{"name": "name is required"})
		}
		current.Name = name
	}
	if update.Phone != nil {
		phone := strings.TrimSpace(*update.Phone)
		if phone != "" && !phonePattern.MatchString(phone) {
			return nil, common.NewValidationError("invalid profile", map[string]string{"phone": "phone number must be 8 digits"})
		}
		current.Phone = phone
	}
	if update.Location != nil {
		current.Location = strings.TrimSpace(*update.Location)
	}
	if update.Skills != nil {
		current.Skills = normalizeSkills(*update.Skills)
	}
	return s.users.Update(ctx, *current)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID common.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return common.NewValidationError("invalid password", map[string]string{"new_password": "password must be at least 6 characters"})
	}
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := security.CheckPassword(account.PasswordHash, currentPassword)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to check password", err)
	}
	if !ok {
		return common.NewError(common.CodeUnauthorized, "Current password is incorrect", nil)
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to hash password", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) issue(account *user.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Generate(account.ID, string(account.Role), s.accessTTL)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to issue token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: account}, nil
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

func errInvalidCredentials() error {
	return common.NewError(common.CodeUnauthorized, "Invalid email or password", nil)
}
