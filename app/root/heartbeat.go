// Package root contains the plain HTTP endpoints served next to GraphQL
package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Validate is only reached when the auth middleware accepted the token
func Validate(c *gin.Context) {
	c.Status(http.StatusOK)
}
