package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     *models.Admin `json:"admin"`
}

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
	log *logrus.Logger
}

func NewAuthService(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *AuthService {
	return &AuthService{db: db, cfg: cfg, log: log}
}

// Register creates a local administrator. Once one administrator exists,
// only an authenticated administrator may create more.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, callerIsAdmin bool) (*AuthResult, error) {
	if len(in.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	db := s.db.WithContext(ctx)
	if !callerIsAdmin {
		var existing int64
		if err := db.Model(&models.Admin{}).Count(&existing).Error; err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, ErrRegistrationClosed
		}
	}

	var dup int64
	if err := db.Model(&models.Admin{}).
		Where("email = ? OR username = ?", email, username).
		Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, ErrDuplicateAdmin
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	admin := models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		Proveedor:    models.ProviderLocal,
		Rol:          models.RolAdmin,
		UltimoLogin:  &now,
	}
	if err := db.Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateAdmin
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return s.issue(&admin)
}

// Login checks a local password. Unknown emails, accounts without a local
// password and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	db := s.db.WithContext(ctx)

	var admin models.Admin
	err := db.Where("email = ?", normalizeEmail(email)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !admin.HasPassword() || !utils.VerifyPassword(*admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.touchLogin(db, &admin); err != nil {
		return nil, err
	}
	return s.issue(&admin)
}

// LoginWithGoogle admits only the configured administrator email, and only
// when Google reports it verified. The account is created on first entry and
// refreshed afterwards.
func (s *AuthService) LoginWithGoogle(ctx context.Context, info *config.GoogleUserInfo) (*AuthResult, error) {
	email := normalizeEmail(info.Email)
	if s.cfg.AdminEmail == "" || email != s.cfg.AdminEmail {
		s.log.WithField("email", email).Warn("google sign-in rejected: email not allowed")
		return nil, ErrEmailNotAllowed
	}
	if !info.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}

	var admin models.Admin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&admin).Error
		now := time.Now().UTC()
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			username, err := availableUsername(tx, email)
			if err != nil {
				return err
			}
			providerID := info.ID
			admin = models.Admin{
				Username:    username,
				Email:       email,
				Proveedor:   models.ProviderGoogle,
				ProveedorID: &providerID,
				Rol:         models.RolAdmin,
				AvatarURL:   info.Picture,
				Verificado:  true,
				UltimoLogin: &now,
			}
			return tx.Create(&admin).Error
		case err != nil:
			return err
		}

		updates := map[string]interface{}{
			"verificado":   true,
			"ultimo_login": now,
		}
		if admin.ProveedorID == nil && info.ID != "" {
			updates["proveedor_id"] = info.ID
		}
		if info.Picture != "" {
			updates["avatar_url"] = info.Picture
		}
		return tx.Model(&admin).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.issue(&admin)
}

// SetPassword sets or changes the local password. currentPassword is only
// checked when the account already has one.
func (s *AuthService) SetPassword(ctx context.Context, adminID uint, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.HasPassword() && !utils.VerifyPassword(*admin.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(admin).Update("password_hash", hash).Error
}

func (s *AuthService) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// Authenticate validates a bearer token and confirms the administrator still
// exists.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.Admin, *utils.AdminClaims, error) {
	claims, err := utils.ParseAdminToken(s.cfg.JWTSecret, raw)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	admin, err := s.GetByID(ctx, claims.AdminID)
	if errors.Is(err, ErrAdminNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	return admin, claims, nil
}

func (s *AuthService) issue(admin *models.Admin) (*AuthResult, error) {
	token, exp, err := utils.NewAdminToken(s.cfg.JWTSecret, admin.ID, admin.Email, admin.Rol, s.cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, Admin: admin}, nil
}

func (s *AuthService) touchLogin(db *gorm.DB, admin *models.Admin) error {
	now := time.Now().UTC()
	admin.UltimoLogin = &now
	return db.Model(admin).UpdateColumn("ultimo_login", now).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// availableUsername derives a username from the email local part, adding a
// numeric suffix until it is free.
func availableUsername(tx *gorm.DB, email string) (string, error) {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "admin"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 2; ; i++ {
		var n int64
		if err := tx.Model(&models.Admin{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}
