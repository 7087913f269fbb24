package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

// credentials is the body of both auth routes. Format rules for email and
// password live in AuthService.
type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authenticateFunc func(ctx context.Context, email, password string) (*service.AuthResult, *apperrors.APIError)

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register answers 201 with a token for the new account.
func (h *AuthHandler) Register(c *gin.Context) {
	respondWithToken(c, h.authService.Register, http.StatusCreated)
}

func (h *AuthHandler) Login(c *gin.Context) {
	respondWithToken(c, h.authService.Login, http.StatusOK)
}

func respondWithToken(c *gin.Context, authenticate authenticateFunc, status int) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindError(err))
		return
	}

	result, apiErr := authenticate(c.Request.Context(), body.Email, body.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(status, result)
}
