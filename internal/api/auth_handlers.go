package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshTokenBody struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		s.fail(c, err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	accessToken, refreshToken, err := s.auth.IssuePair(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setRefreshCookie(c, refreshToken)
	c.JSON(http.StatusCreated, gin.H{"user": user, "accessToken": accessToken})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.fail(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	accessToken, refreshToken, err := s.auth.IssuePair(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setRefreshCookie(c, refreshToken)
	c.JSON(http.StatusOK, gin.H{"user": user, "accessToken": accessToken})
}

// logout blacklists the presented refresh token and clears the cookie.
// It always answers 200: an unknown or already-revoked token is still a
// successful logout from the user's perspective.
func (s *Server) logout(c *gin.Context) {
	token := s.refreshTokenFromRequest(c)

	if err := s.auth.Logout(c.Request.Context(), token); err != nil {
		s.logger.Error("logout blacklist failed", "err", err)
	}

	s.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// accessToken exchanges a refresh token (cookie, x-refresh-token header,
// or body) for a fresh access token. The refresh token is not rotated.
func (s *Server) accessToken(c *gin.Context) {
	token := s.refreshTokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token required"})
		return
	}

	accessToken, err := s.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) || errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// refreshTokenFromRequest extracts the refresh token from, in order of
// precedence, the x-refresh-token header, the cookie, and the JSON body.
func (s *Server) refreshTokenFromRequest(c *gin.Context) string {
	if token := c.GetHeader("x-refresh-token"); token != "" {
		return token
	}
	if token, err := c.Cookie(refreshCookieName); err == nil && token != "" {
		return token
	}
	var body refreshTokenBody
	if err := c.ShouldBindJSON(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

func (s *Server) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, int(s.auth.RefreshTTL().Seconds()), "/", "", false, true)
}

func (s *Server) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
}
