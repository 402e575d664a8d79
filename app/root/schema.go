package root

import (
	"net/http"

	"bitwise74/blog-api/app/graph"

	"github.com/gin-gonic/gin"
)

// Schema serves the GraphQL SDL as plain text
func Schema(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(graph.SDL))
}
