package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/utils"
)

func TestAuthRegisterFirstAdminOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig(), newTestLogger())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: " Ana@Example.com ", Password: "secreto123"}, false)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" || res.Admin.Email != "ana@example.com" || res.Admin.Proveedor != models.ProviderLocal {
		t.Fatalf("unexpected result: %+v", res.Admin)
	}

	if _, err := svc.Register(ctx, RegisterInput{Username: "beto", Email: "beto@example.com", Password: "secreto123"}, false); !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "beto", Email: "beto@example.com", Password: "secreto123"}, true); err != nil {
		t.Fatalf("admin-created register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: "otra@example.com", Password: "secreto123"}, true); !errors.Is(err, ErrDuplicateAdmin) {
		t.Fatalf("expected ErrDuplicateAdmin, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "c", Email: "c@example.com", Password: "corta"}, true); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestAuthLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig(), newTestLogger())
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: "secreto123"}, false); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(ctx, "ANA@example.com", "secreto123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Admin.UltimoLogin == nil {
		t.Fatal("ultimo_login not set")
	}
	claims, err := utils.ParseAdminToken(testConfig().JWTSecret, res.Token)
	if err != nil || claims.AdminID != res.Admin.ID {
		t.Fatalf("token does not carry the admin: %v %+v", err, claims)
	}

	for _, c := range []struct{ email, password string }{
		{"ana@example.com", "incorrecta"},
		{"nadie@example.com", "secreto123"},
	} {
		if _, err := svc.Login(ctx, c.email, c.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login(%s): expected ErrInvalidCredentials, got %v", c.email, err)
		}
	}
}

func TestAuthGoogleAllowlist(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg, newTestLogger())
	ctx := context.Background()

	_, err := svc.LoginWithGoogle(ctx, &config.GoogleUserInfo{ID: "g1", Email: "intruso@gmail.com", VerifiedEmail: true})
	if !errors.Is(err, ErrEmailNotAllowed) {
		t.Fatalf("expected ErrEmailNotAllowed, got %v", err)
	}
	_, err = svc.LoginWithGoogle(ctx, &config.GoogleUserInfo{ID: "g1", Email: cfg.AdminEmail, VerifiedEmail: false})
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	var count int64
	db.Model(&models.Admin{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected sign-ins must not create accounts, got %d", count)
	}

	first, err := svc.LoginWithGoogle(ctx, &config.GoogleUserInfo{ID: "g1", Email: "Admin@SanJuanTahitic.mx", VerifiedEmail: true, Picture: "https://example.com/a.png"})
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if first.Admin.Proveedor != models.ProviderGoogle || !first.Admin.Verificado || first.Admin.HasPassword() {
		t.Fatalf("unexpected google admin: %+v", first.Admin)
	}
	if first.Admin.Username != "admin" {
		t.Fatalf("username = %q", first.Admin.Username)
	}

	second, err := svc.LoginWithGoogle(ctx, &config.GoogleUserInfo{ID: "g1", Email: cfg.AdminEmail, VerifiedEmail: true, Picture: "https://example.com/b.png"})
	if err != nil {
		t.Fatalf("second google login: %v", err)
	}
	if second.Admin.ID != first.Admin.ID {
		t.Fatalf("expected the same account, got %d and %d", first.Admin.ID, second.Admin.ID)
	}
	var stored models.Admin
	db.First(&stored, first.Admin.ID)
	if stored.AvatarURL != "https://example.com/b.png" {
		t.Fatalf("avatar not refreshed: %q", stored.AvatarURL)
	}
}

func TestAuthGoogleUsernameSuffix(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig(), newTestLogger())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "admin", Email: "otro@example.com", Password: "secreto123"}, false); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := svc.LoginWithGoogle(ctx, &config.GoogleUserInfo{ID: "g1", Email: "admin@sanjuantahitic.mx", VerifiedEmail: true})
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if res.Admin.Username != "admin2" {
		t.Fatalf("username = %q, want admin2", res.Admin.Username)
	}
}

func TestAuthSetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig(), newTestLogger())
	ctx := context.Background()

	google, err := svc.LoginWithGoogle(ctx, &config.GoogleUserInfo{ID: "g1", Email: "admin@sanjuantahitic.mx", VerifiedEmail: true})
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if _, err := svc.Login(ctx, "admin@sanjuantahitic.mx", "cualquiera"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("google-only account must not log in locally, got %v", err)
	}

	if err := svc.SetPassword(ctx, google.Admin.ID, "", "nueva-clave"); err != nil {
		t.Fatalf("first password: %v", err)
	}
	if _, err := svc.Login(ctx, "admin@sanjuantahitic.mx", "nueva-clave"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := svc.SetPassword(ctx, google.Admin.ID, "equivocada", "otra-clave"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := svc.SetPassword(ctx, google.Admin.ID, "nueva-clave", "otra-clave"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := svc.SetPassword(ctx, 999, "", "otra-clave"); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}

func TestAuthAuthenticate(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg, newTestLogger())
	ctx := context.Background()

	res, _ := svc.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: "secreto123"}, false)
	admin, claims, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if admin.ID != res.Admin.ID || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected admin %+v claims %+v", admin, claims)
	}

	if _, _, err := svc.Authenticate(ctx, "no-es-un-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	expired, _, _ := utils.NewAdminToken(cfg.JWTSecret, res.Admin.ID, "ana@example.com", models.RolAdmin, -time.Minute)
	if _, _, err := svc.Authenticate(ctx, expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	db.Delete(&models.Admin{}, res.Admin.ID)
	if _, _, err := svc.Authenticate(ctx, res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token of a deleted admin must be rejected, got %v", err)
	}
}
