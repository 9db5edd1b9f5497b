// internal/auth/middleware.go
// Request authentication for the discovery API.
// Identity itself is owned by the surrounding platform; this middleware only
// verifies the access token and exposes the requesting user's ID.

package auth

import (
    "context"
    "net/http"
    "strings"

    "github.com/admnberse-app/berse-backend-sub010/internal/common/utils"
)

// Middleware provides authentication middleware
type Middleware struct {
    jwtSecret string
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtSecret string) *Middleware {
    return &Middleware{
        jwtSecret: jwtSecret,
    }
}

// Authenticate is the main middleware function that protects routes.
// It verifies the JWT token and adds user information to the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        // 1. Extract token from Authorization header
        token := m.extractToken(r)
        if token == "" {
            utils.ErrorResponse(w, "Missing or invalid authorization header", http.StatusUnauthorized)
            return
        }

        // 2. Validate token
        claims, err := utils.ValidateJWT(token, m.jwtSecret)
        if err != nil {
            utils.ErrorResponse(w, "Invalid or expired token", http.StatusUnauthorized)
            return
        }

        // 3. Check if it's an access token (not refresh)
        if claims.Type != "access" {
            utils.ErrorResponse(w, "Invalid token type", http.StatusUnauthorized)
            return
        }

        // 4. Add user information to request context
        ctx := context.WithValue(r.Context(), "userID", claims.UserID)
        ctx = context.WithValue(ctx, "username", claims.Username)

        // 5. Pass to the next handler with the updated context
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

// extractToken extracts the JWT token from the Authorization header
// Supports "Bearer <token>" format
func (m *Middleware) extractToken(r *http.Request) string {
    authHeader := r.Header.Get("Authorization")
    if authHeader == "" {
        return ""
    }

    parts := strings.Split(authHeader, " ")
    if len(parts) != 2 || parts[0] != "Bearer" {
        return ""
    }

    return parts[1]
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
    userID, ok := ctx.Value("userID").(int64)
    return userID, ok
}
