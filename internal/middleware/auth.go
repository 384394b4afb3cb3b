// Package middleware contains HTTP middleware functions for the Championship League API.
// Middleware sits between the HTTP server and route handlers: it runs on every request
// that passes through it, making it the right place for cross-cutting concerns like
// authentication and role checks.
package middleware

import (
	"errors"
	"fmt"
	"strings"

	// fiber is the HTTP framework; fiber.Handler is the function signature for middleware
	"github.com/gofiber/fiber/v2"
	// jwt parses and verifies JSON Web Tokens from the Authorization header
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/config"
	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/store"
)

// Claims defines the data we expect inside a bearer token payload.
// Besides the standard fields (Subject = external user id, expiry, ...) the issuer may add:
//
//	"role":  "admin" | "user"  : the user's permission level
//	"email": "..."             : used to populate our users table
//	"name":  "..."             : display name for our users table
//
// Without these custom claims the role defaults to "user" and email/name get placeholders.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT fields: Subject (user ID), ExpiresAt, IssuedAt, etc.
	Role                 string `json:"role"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
}

// tokenQueryParam carries the token for websocket upgrades, since browsers cannot set
// headers on a websocket handshake.
const tokenQueryParam = "access_token"

// Auth returns a Fiber middleware handler that:
//  1. Reads the JWT from the "Authorization: Bearer <token>" header (or ?access_token=)
//  2. Verifies its HS256 signature with cfg.JWTSecret
//  3. Finds the matching user in our database (or creates one on first visit) and syncs
//     the role from the token
//  4. Stores the user's internal UUID and role in the request context (c.Locals) so
//     downstream handlers can read them without re-parsing the token
//
// When no secret is configured and the app runs in development, signatures are not
// checked so local clients can mint tokens freely. config.Load refuses that combination
// outside development.
func Auth(cfg *config.Config, st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// --- Step 1: Extract the token ---
		tokenStr, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		// --- Step 2: Parse and verify the JWT ---
		claims, err := parseToken(cfg, tokenStr)
		if err != nil {
			log.Debug().Err(err).Msg("rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		subject := claims.Subject
		if subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token missing subject",
			})
		}

		// --- Step 3: Find or create the user in our database ---
		// "Lazy user sync": the first authenticated request creates the user row.
		role := roleFromClaim(claims.Role)

		email := claims.Email
		if email == "" {
			// Deterministic and unique per subject, clearly not a real address
			email = fmt.Sprintf("%s@users.local", subject)
		}
		name := claims.Name
		if name == "" {
			name = "User"
		}

		user, err := st.FindOrCreateUser(c.UserContext(), subject, name, email, role, claims.Role != "")
		if err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("failed to sync user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "database error",
			})
		}

		// --- Step 4: Store user info in the request context ---
		// c.Locals is a key-value store scoped to this single request.
		c.Locals("userID", user.ID.String())
		c.Locals("userRole", string(user.Role))

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tok := strings.TrimPrefix(authHeader, "Bearer ")
		return tok, tok != ""
	}
	if authHeader == "" {
		if tok := c.Query(tokenQueryParam); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// parseToken verifies tokenStr and returns its claims.
func parseToken(cfg *config.Config, tokenStr string) (*Claims, error) {
	claims := &Claims{}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("no JWT secret configured")
		}
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// roleFromClaim converts the raw role string from the JWT into our typed UserRole enum.
// If the claim is missing or unrecognised, it defaults to "user" (least privileged).
func roleFromClaim(s string) models.UserRole {
	switch s {
	case string(models.UserRoleAdmin):
		return models.UserRoleAdmin
	default:
		return models.UserRoleUser
	}
}

// UserID returns the authenticated user's id stored by Auth.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	s, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsAdmin reports whether the authenticated user has the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("userRole").(string)
	return role == string(models.UserRoleAdmin)
}
