package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/dmitrijs2005/eventplanner/internal/server/models"
	"github.com/dmitrijs2005/eventplanner/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the orchestrator surface the handlers call.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*services.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, token string) (string, error)
	Generate2FA(ctx context.Context, email, password string) (*models.UserSummary, error)
	LoginWith2FA(ctx context.Context, email, code string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*models.UserSummary, error)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

type generate2FARequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginWith2FARequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type registerResponse struct {
	User           *models.UserSummary `json:"user"`
	ActivationLink string              `json:"activationLink"`
}

type verifyEmailResponse struct {
	ID string `json:"id"`
}

type userResponse struct {
	User *models.UserSummary `json:"user"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User *models.UserSummary `json:"user"`
	tokensResponse
}

// Handler serves the auth endpoints.
type Handler struct {
	auth          AuthService
	log           logging.Logger
	secureCookies bool
}

func NewHandler(svc AuthService, log logging.Logger, secureCookies bool) *Handler {
	return &Handler{auth: svc, log: log, secureCookies: secureCookies}
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, http.StatusBadRequest, msgValidation, bindingErrors(err))
		return false
	}
	return true
}

// Register handles POST /registerAccount.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err, "")
		return
	}

	respond(c, http.StatusCreated, "Account registered successfully.", registerResponse{
		User:           res.User,
		ActivationLink: res.ActivationLink,
	})
}

// VerifyEmail handles POST /verifyEmail.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !h.bind(c, &req) {
		return
	}

	id, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		fail(c, err, "")
		return
	}

	respond(c, http.StatusOK, "Email verified successfully.", verifyEmailResponse{ID: id})
}

// Generate2FA handles POST /generate2FA.
func (h *Handler) Generate2FA(c *gin.Context) {
	var req generate2FARequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Generate2FA(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err, "Invalid email or password.")
		return
	}

	respond(c, http.StatusOK, "Please check your email for the 2FA code.", userResponse{User: user})
}

// LoginWith2FA handles POST /loginWith2FA.
func (h *Handler) LoginWith2FA(c *gin.Context) {
	var req loginWith2FARequest
	if !h.bind(c, &req) {
		return
	}

	sess, err := h.auth.LoginWith2FA(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		fail(c, err, "Invalid email or 2FA code.")
		return
	}

	h.setRefreshCookie(c, sess.RefreshToken, sess.RefreshExpiresAt)
	respond(c, http.StatusOK, "Login successful.", loginResponse{
		User:           sess.User,
		tokensResponse: tokensResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken},
	})
}

// Refresh handles POST /refresh. The cookie wins over a body token.
func (h *Handler) Refresh(c *gin.Context) {
	token, err := c.Cookie(common.RefreshTokenCookieName)
	if err != nil || token == "" {
		var req refreshRequest
		if c.Request.ContentLength != 0 {
			_ = c.ShouldBindJSON(&req)
		}
		token = req.RefreshToken
	}
	if token == "" {
		abort(c, http.StatusUnauthorized, "Refresh token is missing.", nil)
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), token)
	if err != nil {
		fail(c, err, "Invalid or expired refresh token.")
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	respond(c, http.StatusOK, "Token refreshed successfully.", tokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles GET /logout. Requires RequireAuth.
func (h *Handler) Logout(c *gin.Context) {
	userID, ok := UserIDFromContext(c.Request.Context())
	if !ok {
		abort(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), userID); err != nil {
		fail(c, err, "")
		return
	}

	h.clearRefreshCookie(c)
	respond(c, http.StatusOK, "Logged out successfully.", nil)
}

// Me handles GET /me. Requires RequireAuth.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := UserIDFromContext(c.Request.Context())
	if !ok {
		abort(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "")
		return
	}

	respond(c, http.StatusOK, "User fetched successfully.", userResponse{User: user})
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
