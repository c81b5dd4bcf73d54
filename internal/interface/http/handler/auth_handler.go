package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/dto"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/auth"
)

type AuthHandler struct {
	registerUC *auth.RegisterUseCase
	loginUC    *auth.LoginUseCase
	meUC       *auth.CurrentUserUseCase
}

func NewAuthHandler(registerUC *auth.RegisterUseCase, loginUC *auth.LoginUseCase, meUC *auth.CurrentUserUseCase) *AuthHandler {
	return &AuthHandler{registerUC: registerUC, loginUC: loginUC, meUC: meUC}
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAuthResponse(result))
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}

	result, err := h.loginUC.Execute(c.Request.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAuthResponse(result))
}

// Me обрабатывает GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.meUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToUserResponse(user))
}
