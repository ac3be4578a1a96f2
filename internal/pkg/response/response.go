package response

import "github.com/gin-gonic/gin"

// JSON writes a flat success body with an explicit status (signup
// returns 201, everything else 200).
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Message writes the `{message}` confirmation shape shared by signup,
// forgot-password and reset-password.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// Error writes the uniform failure body: an HTTP status plus a
// `{message}` payload. Callers pick the message; nothing else leaks.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
