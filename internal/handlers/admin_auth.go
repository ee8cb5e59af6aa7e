package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"adminpanel/internal/middleware"
	"adminpanel/internal/store"
)

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
}

func AdminLogin(users store.Users, auth *middleware.Auth, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/admin/login"
		defer handlePanic(c, route)

		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := requestContext(c)
		defer cancel()

		admin, err := users.GetAdminByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				respondError(c, route, err)
				return
			}
			log.Printf("[AUTH] [WARN] admin login for unknown %s", email)
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
			log.Printf("[AUTH] [WARN] admin login bad password for %s", email)
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		token, expires, err := auth.IssueAdminToken(admin.ID, admin.Email, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}
		log.Printf("[AUTH] [INFO] admin %s logged in", email)
		respond(c, http.StatusOK, adminLoginResponse{Token: token, ExpiresAt: expires.UTC(), Email: admin.Email, Name: admin.Name})
	}
}
