package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/common"
)

// Recovery turns a handler panic into a 500 envelope instead of a
// dropped connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
