package handlers

import (
	"errors"
	"net/http"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"github.com/careercoach/careercoach/backend/go-services/internal/sessions"
	"github.com/careercoach/careercoach/backend/go-services/internal/users"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/careercoach/careercoach/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRequest is the password sign-up body.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the password sign-in body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	users      *users.Service
	issuer     TokenIssuer
	verifier   middleware.Verifier
	sessions   *sessions.Service
	serializer *sessions.Serializer
	cookie     *SessionCookie
}

func NewAuthHandler(u *users.Service, iss TokenIssuer, ver middleware.Verifier, s *sessions.Service, z *sessions.Serializer, cookie *SessionCookie) *AuthHandler {
	return &AuthHandler{users: u, issuer: iss, verifier: ver, sessions: s, serializer: z, cookie: cookie}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.GET("/session", h.Session)
	a.GET("/me", middleware.AuthMiddleware(h.verifier), h.Me)
}

// SignUp creates a password account and signs it in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, valid email and a password of at least 8 characters are required"})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	case errors.Is(err, users.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, valid email and a password of at least 8 characters are required"})
		return
	case err != nil:
		logger.Errorf("register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	h.respondWithToken(c, http.StatusCreated, u)
}

// Login checks email/password and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		logger.Errorf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	h.respondWithToken(c, http.StatusOK, u)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, u *models.User) {
	ctx := c.Request.Context()
	token, err := h.issuer.Issue(u)
	if err != nil {
		logger.Errorf("token issuance failed for user %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	prev, err := h.sessions.Get(ctx, h.cookie.id(c))
	if err != nil {
		logger.Warnf("session lookup failed: %v", err)
	}
	sess, err := h.serializer.Serialize(ctx, prev, u)
	if err != nil {
		// the bearer token is the primary credential; a missing cookie session is not fatal
		logger.Warnf("could not create session for user %s: %v", u.ID, err)
	} else {
		h.cookie.set(c, sess)
	}
	c.JSON(status, gin.H{"token": token, "user": u})
}

// Me returns the user behind the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		logger.Errorf("user lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Session returns the user bound to the session cookie.
func (h *AuthHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := h.sessions.Get(ctx, h.cookie.id(c))
	if err != nil {
		logger.Errorf("session lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	u, err := h.serializer.Deserialize(ctx, sess)
	if err != nil {
		logger.Errorf("session user lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Logout destroys the server session. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Destroy(c.Request.Context(), h.cookie.id(c)); err != nil {
		logger.Errorf("logout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	h.cookie.clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
