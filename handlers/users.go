package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/internal/oidc"
	"github.com/zedemy/zedemy/backend/go-services/internal/sessions"
	"github.com/zedemy/zedemy/backend/go-services/internal/tokens"
	"github.com/zedemy/zedemy/backend/go-services/internal/users"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/middleware"
)

const oauthStateCookie = "zedemy_oauth_state"

// UserMailer is the subset of the notifier the account endpoints use.
type UserMailer interface {
	SendWelcomeEmail(ctx context.Context, user *models.User, ip, userAgent string)
	SendPasswordResetEmail(ctx context.Context, user *models.User, token string)
	SendPasswordResetConfirmation(ctx context.Context, user *models.User)
}

// GoogleFlow runs the redirect-based Google sign-in.
type GoogleFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oidc.Profile, error)
}

// UserHandler serves /api/users. Google and Flow may be nil when Google
// sign-in is not configured.
type UserHandler struct {
	Users       *users.Service
	Sessions    *sessions.Service
	Tokens      *tokens.Manager
	Blacklist   *sessions.Blacklist
	Google      oidc.Verifier
	Flow        GoogleFlow
	Mail        UserMailer
	FrontendURL string
}

func (h *UserHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	u := rg.Group("/users")
	u.POST("/register", h.SignUp)
	u.POST("/login", h.Login)
	u.POST("/google", h.GoogleSignIn)
	u.GET("/google/login", h.GoogleRedirect)
	u.GET("/google/callback", h.GoogleCallback)
	u.POST("/refresh", h.Refresh)
	u.POST("/forgot-password", h.ForgotPassword)
	u.POST("/reset-password/:token", h.ResetPassword)

	u.POST("/logout", auth, h.Logout)
	u.GET("/me", auth, h.Me)
	u.PUT("/follow-categories", auth, h.FollowCategories)
	u.PUT("/unfollow-category", auth, h.UnfollowCategory)
}

// issue opens a session and answers {token, refreshToken, user}.
func (h *UserHandler) issue(c *gin.Context, status int, u *models.User) {
	access, refresh, err := h.tokensFor(c.Request.Context(), u)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(status, gin.H{"token": access, "refreshToken": refresh, "user": u})
}

func (h *UserHandler) tokensFor(ctx context.Context, u *models.User) (string, string, error) {
	refresh, err := h.Sessions.Create(ctx, u.ID)
	if err != nil {
		return "", "", err
	}
	access, err := h.Tokens.Generate(u)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

type signUpRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PolicyAccepted bool   `json:"policyAccepted"`
}

func (h *UserHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	u, err := h.Users.Register(c.Request.Context(), users.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		PolicyAccepted: req.PolicyAccepted,
	})
	if err != nil {
		fail(c, err, "")
		return
	}
	logger.Infof("user %s registered", u.ID)
	h.Mail.SendWelcomeEmail(c.Request.Context(), u, c.ClientIP(), c.Request.UserAgent())
	h.issue(c, http.StatusCreated, u)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			badRequest(c, "Invalid credentials")
			return
		}
		fail(c, err, "")
		return
	}
	h.issue(c, http.StatusOK, u)
}

// signInGoogle upserts the account for a verified profile and answers with tokens.
func (h *UserHandler) signInGoogle(c *gin.Context, p *oidc.Profile) (*models.User, bool) {
	u, created, err := h.Users.UpsertGoogle(c.Request.Context(), users.GoogleProfile{Sub: p.Sub, Email: p.Email, Name: p.Name})
	if err != nil {
		fail(c, err, "Google sign-in failed")
		return nil, false
	}
	if created {
		logger.Infof("user %s registered with Google", u.ID)
		h.Mail.SendWelcomeEmail(c.Request.Context(), u, c.ClientIP(), c.Request.UserAgent())
	}
	return u, true
}

func (h *UserHandler) GoogleSignIn(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "Google sign-in is not configured"})
		return
	}
	var req struct {
		Credential string `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Google credential is required")
		return
	}
	p, err := h.Google.VerifyIDToken(c.Request.Context(), req.Credential)
	if err != nil {
		fail(c, err, "Invalid Google credential")
		return
	}
	if u, ok := h.signInGoogle(c, p); ok {
		h.issue(c, http.StatusOK, u)
	}
}

func (h *UserHandler) GoogleRedirect(c *gin.Context) {
	if h.Flow == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "Google sign-in is not configured"})
		return
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		fail(c, err, "")
		return
	}
	state := hex.EncodeToString(b)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/users/google", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.Flow.AuthCodeURL(state))
}

// GoogleCallback finishes the redirect flow and hands the tokens to the
// frontend in the URL fragment.
func (h *UserHandler) GoogleCallback(c *gin.Context) {
	if h.Flow == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "Google sign-in is not configured"})
		return
	}
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		badRequest(c, "Invalid OAuth state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/users/google", "", c.Request.TLS != nil, true)
	code := c.Query("code")
	if code == "" {
		badRequest(c, "Missing authorization code")
		return
	}
	p, err := h.Flow.Exchange(c.Request.Context(), code)
	if err != nil {
		fail(c, err, "Google sign-in failed")
		return
	}
	u, ok := h.signInGoogle(c, p)
	if !ok {
		return
	}
	access, refresh, err := h.tokensFor(c.Request.Context(), u)
	if err != nil {
		fail(c, err, "")
		return
	}
	frag := url.Values{"token": {access}, "refreshToken": {refresh}}
	c.Redirect(http.StatusFound, h.FrontendURL+"/auth/google/callback#"+frag.Encode())
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, "Refresh token is required")
		return
	}
	sess, err := h.Sessions.Validate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err, "Invalid refresh token")
		return
	}
	u, err := h.Users.Get(c.Request.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			fail(c, apperr.ErrUnauthorized, "Invalid refresh token")
			return
		}
		fail(c, err, "")
		return
	}
	access, err := h.Tokens.Generate(u)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": access})
}

// Logout revokes the bearer token for its remaining lifetime and drops the
// refresh session when one is supplied.
func (h *UserHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if claims := middleware.Claims(c); claims != nil {
		raw := c.GetString(middleware.ContextToken)
		if err := h.Blacklist.Revoke(ctx, raw, claims.Remaining(time.Now())); err != nil {
			fail(c, err, "")
			return
		}
	}
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken != "" {
		if sess, err := h.Sessions.Validate(ctx, req.RefreshToken); err == nil && sess.UserID == middleware.UserID(c) {
			if err := h.Sessions.Delete(ctx, req.RefreshToken); err != nil {
				logger.Warnf("logout: delete session: %v", err)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out successfully"})
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) FollowCategories(c *gin.Context) {
	var req struct {
		Categories []string `json:"categories"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	u, err := h.Users.Follow(c.Request.Context(), middleware.UserID(c), req.Categories)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Categories followed", "followedCategories": u.FollowedCategories})
}

func (h *UserHandler) UnfollowCategory(c *gin.Context) {
	var req struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	u, err := h.Users.Unfollow(c.Request.Context(), middleware.UserID(c), req.Category)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Category unfollowed", "followedCategories": u.FollowedCategories})
}

// ForgotPassword answers the same way whether or not the email exists.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email is required")
		return
	}
	tok, u, err := h.Users.StartPasswordReset(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		h.Mail.SendPasswordResetEmail(c.Request.Context(), u, tok)
	case errors.Is(err, apperr.ErrNotFound):
		logger.Debugf("password reset requested for unknown email")
	default:
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "If that email is registered, a reset link has been sent"})
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Password is required")
		return
	}
	u, err := h.Users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		fail(c, err, "")
		return
	}
	h.Mail.SendPasswordResetConfirmation(c.Request.Context(), u)
	c.JSON(http.StatusOK, gin.H{"msg": "Password has been reset"})
}
