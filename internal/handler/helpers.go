package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/otpgate/otpgate/internal/model"
	appErr "github.com/otpgate/otpgate/internal/pkg/errors"
	"github.com/otpgate/otpgate/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

// handleError translates domain sentinels into the wire contract: every
// anticipated failure is a 400 with its fixed message, anything else
// degrades to a generic 500 with the cause kept server-side.
func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "Missing fields")
	case appErr.IsConflict(err):
		response.Error(c, http.StatusBadRequest, "User already exists")
	case appErr.IsOtpInvalid(err):
		response.Error(c, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusBadRequest, "Invalid credentials")
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusBadRequest, "No user with that email")
	default:
		requestID, _ := c.Get("request_id")
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.Any("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Server error")
	}
}

// userPayload is the public identity shape returned with session
// tokens; the password hash never appears here.
func userPayload(user *model.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
	}
}
