package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
	"github.com/otpgate/otpgate/internal/pkg/response"
	"github.com/otpgate/otpgate/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), getUserID(c))
	if err != nil {
		if appErr.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": user})
}

type updateProfileRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	ProfileImage string `json:"profileImage"`
	Password     string `json:"password"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Missing fields")
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), getUserID(c), service.ProfileUpdate{
		Name:         req.Name,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
		Password:     req.Password,
	})
	if err != nil {
		if appErr.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": user})
}
