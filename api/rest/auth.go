package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/eorzealink/server/cache"
	"github.com/eorzealink/server/config"
	mw "github.com/eorzealink/server/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication REST endpoints. The server is keyed
// by a single access key; a successful login opens a cached session.
type AuthHandler struct {
	cache cache.Cache
	sec   config.SecurityConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{cache: c, sec: sec}
}

type loginRequest struct {
	AccessKey string `json:"access_key" binding:"required,min=4,max=128"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.sec.AccessKeyHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "access key not configured"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.sec.AccessKeyHash), []byte(req.AccessKey)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access key"})
		return
	}

	sessionID := uuid.New().String()
	token, err := mw.GenerateToken(sessionID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	// Store the session as a simple KV entry so Exists() works uniformly.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, "session:"+sessionID, "1", h.sec.JWTTTLH); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := mw.GetSessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+sessionID)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	oldSession := mw.GetSessionID(c)
	if oldSession == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+oldSession)

	sessionID := uuid.New().String()
	token, err := mw.GenerateToken(sessionID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	if err := h.cache.Set(ctx, "session:"+sessionID, "1", h.sec.JWTTTLH); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
