package middleware

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Email   string
	Phone   string
	Admin   bool
	// APIKey marks machine callers authenticated by X-API-Key.
	APIKey bool
}

// Actor names the caller in audit fields such as approvedBy.
func (p Principal) Actor() string {
	switch {
	case p.Email != "":
		return p.Email
	case p.APIKey:
		return "api-key"
	case p.Subject != "":
		return p.Subject
	default:
		return p.Phone
	}
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

type Auth struct {
	secret      []byte
	adminEmails map[string]bool
	apiKeys     [][]byte
}

func NewAuth(secret string, adminEmails, apiKeys []string) *Auth {
	a := &Auth{secret: []byte(secret), adminEmails: map[string]bool{}}
	for _, email := range adminEmails {
		a.adminEmails[strings.ToLower(strings.TrimSpace(email))] = true
	}
	for _, key := range apiKeys {
		a.apiKeys = append(a.apiKeys, []byte(key))
	}
	return a
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// Authenticate accepts an X-API-Key or a bearer token and stores the
// Principal on the context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
			if !a.validAPIKey(key) {
				log.Println("[AUTH] [ERROR] invalid api key")
				abort(c, http.StatusUnauthorized, "unauthorized")
				return
			}
			c.Set(principalKey, Principal{Admin: true, APIKey: true})
			c.Next()
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			log.Println("[AUTH] [ERROR] missing token")
			abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Println("[AUTH] [ERROR] invalid token format")
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		principal, err := a.Verify(parts[1])
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !p.Admin {
			log.Printf("[AUTH] [WARN] %s denied admin route %s", p.Actor(), c.FullPath())
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

// Verify parses an HS256 token signed with the shared secret and derives the
// principal. Customer tokens are minted locally with the identity provider's
// claim names (sub, email, phone_number); RS256 ID tokens issued by the
// provider itself are not accepted. Admin is granted by an admin claim,
// role "admin" or an allow-listed email.
func (a *Auth) Verify(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("token invalid")
		}
		return Principal{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("token claims invalid")
	}

	p := Principal{}
	p.Subject, _ = claims["sub"].(string)
	p.Email, _ = claims["email"].(string)
	p.Phone, _ = claims["phone_number"].(string)
	isAdmin, _ := claims["admin"].(bool)
	role, _ := claims["role"].(string)
	p.Admin = isAdmin || role == "admin" || (p.Email != "" && a.adminEmails[strings.ToLower(p.Email)])
	return p, nil
}

// IssueAdminToken signs a token for an admin logged in with a password.
func (a *Auth) IssueAdminToken(subject, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"role":  "admin",
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
	})
	signed, err := token.SignedString(a.secret)
	return signed, expires, err
}

func (a *Auth) validAPIKey(key string) bool {
	candidate := []byte(key)
	valid := false
	for _, k := range a.apiKeys {
		if subtle.ConstantTimeCompare(candidate, k) == 1 {
			valid = true
		}
	}
	return valid
}
