// Package httpx holds the JSON response helpers shared by every gin handler.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/campusmatch/internal/errors"
)

// Error writes {"error": msg} with the status mapped from err.
// Unknown errors surface as a static 500.
func Error(c *gin.Context, err error) {
	status, msg := svcErr.HTTPStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Bind decodes the JSON body into dst. On failure it writes a 400 and returns false.
func Bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// OK writes a 200 JSON body.
func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
