package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/otpgate/otpgate/internal/pkg/response"
	"github.com/otpgate/otpgate/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		response.Error(c, http.StatusBadRequest, "Missing fields")
		return
	}
	code, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	body := gin.H{"message": "Signup successful. OTP sent to email."}
	if code != "" {
		body["otp"] = code
	}
	response.JSON(c, http.StatusCreated, body)
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Otp == "" {
		response.Error(c, http.StatusBadRequest, "Missing fields")
		return
	}
	user, token, err := h.auth.VerifyOtp(c.Request.Context(), req.Email, req.Otp)
	if err != nil {
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "user": userPayload(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		response.Error(c, http.StatusBadRequest, "Missing fields")
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "user": userPayload(user)})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, http.StatusBadRequest, "Missing email")
		return
	}
	code, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		handleError(c, err)
		return
	}
	body := gin.H{"message": "OTP sent to email"}
	if code != "" {
		body["otp"] = code
	}
	response.JSON(c, http.StatusOK, body)
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Otp == "" || req.NewPassword == "" {
		response.Error(c, http.StatusBadRequest, "Missing fields")
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.Otp, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Password reset successful")
}
