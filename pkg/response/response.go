package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/studora/forum-sync-api/pkg/errors"
)

// ErrorBody is the common error response contract.
type ErrorBody struct {
	Success bool             `json:"success"`
	Error   *appErrors.Error `json:"error"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, data)
}

// Accepted responds with HTTP 202 Accepted.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, ErrorBody{Error: appErr})
}
