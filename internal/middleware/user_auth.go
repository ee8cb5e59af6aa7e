package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireCustomerOrAdmin lets admins and API keys through, and customers
// only when their token's phone_number matches the path parameter.
func RequireCustomerOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if p.Admin {
			c.Next()
			return
		}

		phone := strings.TrimSpace(c.Param(param))
		if p.Phone == "" || p.Phone != phone {
			log.Printf("[AUTH] [WARN] customer %s denied access to %s", p.Actor(), phone)
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		log.Println("[AUTH] [INFO] customer token validated")
		c.Next()
	}
}
