package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"algobank/backend/internal/middleware"
	"algobank/backend/internal/service"
	"algobank/backend/pkg/helpers"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *helpers.CustomValidator
}

func NewAuthHandler(authService *service.AuthService, validator *helpers.CustomValidator) *AuthHandler {
	return &AuthHandler{authService: authService, validator: validator}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/verify/:token", h.VerifyEmail)
	r.POST("/auth/resend-verification", h.ResendVerification)
	r.GET("/auth/me", auth, h.Me)
	r.PATCH("/auth/profile", auth, h.UpdateProfile)
}

// bindAndValidate decodes the JSON body and runs struct validation, writing
// the error response itself. Returns false when the request was rejected.
func bindAndValidate(c *gin.Context, v *helpers.CustomValidator, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return false
	}
	if err := v.Validate(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			helpers.WriteValidationErrorResponse(c, ve)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		}
		return false
	}
	return true
}

type registerRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Phone        string `json:"phone" validate:"max=32"`
	ReferralCode string `json:"referralCode" validate:"max=16"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful, check your email to verify the account",
		"user":    user.Public(),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.Public(),
	})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.authService.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "email verified",
		"user":    user.Public(),
	})
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a new verification email was sent"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone string `json:"phone" validate:"max=32"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
