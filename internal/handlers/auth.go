package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/cache"
	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/dto"
	apierrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/gateway"
	"github.com/yukikurage/taskboard-web/internal/logger"
	"github.com/yukikurage/taskboard-web/internal/middleware"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/services"
	"github.com/yukikurage/taskboard-web/internal/session"
)

var errExpiredToken = errors.New("login returned an expired token")

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	gateway  *gateway.Client
	users    *cache.UserCache
	registry *services.BoardRegistry
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. users may be nil to disable caching.
func NewAuthHandler(gw *gateway.Client, users *cache.UserCache, registry *services.BoardRegistry, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		gateway:  gw,
		users:    users,
		registry: registry,
		logger:   log,
	}
}

// Signup registers a new account with the API.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.gateway.Signup(c.Request.Context(), req.Signup()); err != nil {
		h.logFailure(c, "signup", err)
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Your account has been created! Please login.",
	})
}

// Login exchanges credentials for a token and keeps it in the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.gateway.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure(c, "login", err)
		apierrors.Respond(c, err)
		return
	}

	sess, err := session.FromToken(token)
	if err == nil && !sess.Authenticated() {
		err = errExpiredToken
	}
	if err != nil {
		h.logFailure(c, "login", err)
		apierrors.Respond(c, apierrors.Wrap(apierrors.KindInvalidPayload, "handlers.Login", err))
		return
	}

	store := sessions.Default(c)
	store.Set(constants.SessionKeyToken, token)
	if err := store.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You are now logged in!",
		"user":    dto.ToUserDTO(*sess.User()),
	})
}

// Logout ends the session locally and, best effort, at the API.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	if token := sess.Token(); token != "" {
		if err := h.gateway.WithToken(token).Logout(c.Request.Context()); err != nil {
			h.logFailure(c, "logout", err)
		}
		h.users.Invalidate(c.Request.Context(), token)
	}

	store := sessions.Default(c)
	if id, ok := store.Get(constants.SessionKeyBoardID).(string); ok {
		h.registry.Drop(id)
	}
	store.Clear()
	if err := store.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		h.logFailure(c, "current user", err)
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

// UpdateProfile saves the editable profile fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token := middleware.GetSession(c).Token()
	user, err := h.gateway.WithToken(token).UpdateProfile(c.Request.Context(), req.ProfileUpdate())
	if err != nil {
		h.logFailure(c, "update profile", err)
		apierrors.Respond(c, err)
		return
	}
	h.users.Invalidate(c.Request.Context(), token)

	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

func (h *AuthHandler) currentUser(c *gin.Context) (models.User, error) {
	token := middleware.GetSession(c).Token()
	client := h.gateway.WithToken(token)
	return h.users.CurrentUser(c.Request.Context(), token, client.CurrentUser)
}

func (h *AuthHandler) logFailure(c *gin.Context, action string, err error) {
	logger.WithRequestID(c.Request.Context(), h.logger).Info(action+" failed",
		zap.String("kind", string(apierrors.KindOf(err))),
		zap.Error(err),
	)
}
