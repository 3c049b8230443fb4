package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600
	oauthCookiePath  = "/api/auth"
)

type AuthController struct {
	Auth         *services.AuthService
	GoogleConfig *config.GoogleConfig
	Cfg          *config.Config
	Log          *logrus.Logger
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleTokenRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func NewAuthController(auth *services.AuthService, google *config.GoogleConfig, cfg *config.Config, log *logrus.Logger) *AuthController {
	return &AuthController{Auth: auth, GoogleConfig: google, Cfg: cfg, Log: log}
}

// Register creates an administrator. Open only while no administrator exists,
// afterwards it needs an administrator token.
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Usuario (mínimo 3 caracteres), email válido y contraseña de al menos 8 caracteres son obligatorios")
		return
	}

	result, err := ac.Auth.Register(c.Request.Context(), services.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}, utils.GetAdmin(c) != nil)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Email y contraseña son obligatorios")
		return
	}

	result, err := ac.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GoogleLogin redirects to the Google consent screen. The state travels in
// an HttpOnly cookie and is checked on the callback.
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if ac.GoogleConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El inicio de sesión con Google no está configurado"})
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, oauthCookiePath, "", ac.Cfg.IsProduction(), true)
	c.Redirect(http.StatusFound, ac.GoogleConfig.AuthCodeURL(state))
}

// GoogleCallback finishes the browser flow and always answers with a
// redirect to the admin frontend.
func (ac *AuthController) GoogleCallback(c *gin.Context) {
	if ac.GoogleConfig == nil {
		ac.redirectLoginError(c, "google_disabled")
		return
	}
	if c.Query("error") != "" {
		ac.redirectLoginError(c, "access_denied")
		return
	}

	expected, err := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, oauthCookiePath, "", ac.Cfg.IsProduction(), true)
	if err != nil || expected == "" || expected != c.Query("state") {
		ac.redirectLoginError(c, "invalid_state")
		return
	}

	code := c.Query("code")
	if code == "" {
		ac.redirectLoginError(c, "missing_code")
		return
	}

	ctx := c.Request.Context()
	token, err := ac.GoogleConfig.ExchangeCode(ctx, code)
	if err != nil {
		ac.Log.WithError(err).Warn("google callback: code exchange failed")
		ac.redirectLoginError(c, "auth_failed")
		return
	}
	info, err := ac.GoogleConfig.GetUserInfo(ctx, token)
	if err != nil {
		ac.Log.WithError(err).Warn("google callback: userinfo failed")
		ac.redirectLoginError(c, "auth_failed")
		return
	}

	result, err := ac.Auth.LoginWithGoogle(ctx, info)
	if err != nil {
		ac.redirectLoginError(c, googleErrorCode(ac.Log, err))
		return
	}

	target := ac.Cfg.FrontendURL + "/admin/auth/callback?token=" + url.QueryEscape(result.Token)
	c.Redirect(http.StatusFound, target)
}

// GoogleToken signs in with an ID token obtained by the frontend.
func (ac *AuthController) GoogleToken(c *gin.Context) {
	if ac.GoogleConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El inicio de sesión con Google no está configurado"})
		return
	}
	var input GoogleTokenRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "id_token es obligatorio")
		return
	}

	info, err := ac.GoogleConfig.VerifyIDToken(c.Request.Context(), input.IDToken)
	if err != nil {
		ac.Log.WithError(err).Info("google id token rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de Google inválido"})
		return
	}

	result, err := ac.Auth.LoginWithGoogle(c.Request.Context(), info)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ac *AuthController) Me(c *gin.Context) {
	admin := utils.GetAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Administrador no encontrado en el contexto"})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: admin})
}

func (ac *AuthController) Verify(c *gin.Context) {
	admin := utils.GetAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "admin": admin})
}

// ChangePassword sets a first local password for Google-only accounts or
// changes an existing one.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	admin := utils.GetAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Administrador no encontrado en el contexto"})
		return
	}
	var input ChangePasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, ac.Log, services.ErrPasswordTooShort)
		return
	}
	if admin.HasPassword() && input.CurrentPassword == "" {
		badRequest(c, "La contraseña actual es obligatoria")
		return
	}

	if err := ac.Auth.SetPassword(c.Request.Context(), admin.ID, input.CurrentPassword, input.NewPassword); err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Contraseña actualizada"})
}

func (ac *AuthController) redirectLoginError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, ac.Cfg.FrontendURL+"/admin/login?error="+url.QueryEscape(code))
}

func googleErrorCode(log *logrus.Logger, err error) string {
	switch {
	case errors.Is(err, services.ErrEmailNotAllowed):
		return "unauthorized_email"
	case errors.Is(err, services.ErrEmailNotVerified):
		return "email_not_verified"
	}
	log.WithError(err).Error("google sign-in failed")
	return "auth_failed"
}
