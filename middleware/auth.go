package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qrtrack/database"
	"qrtrack/models"
)

type contextKey string

const EmployeeContextKey contextKey = "employee"

const TokenCookie = "token"

type Claims struct {
	EmployeeID uint        `json:"employee_id"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	jwt.RegisteredClaims
}

var jwtSecret []byte

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateToken(employee *models.Employee, expiration time.Duration) (string, error) {
	claims := &Claims{
		EmployeeID: employee.ID,
		Email:      employee.Email,
		Role:       employee.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// SetTokenCookie stores a session token in the browser.
func SetTokenCookie(w http.ResponseWriter, token string, expiration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(expiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func tokenFromRequest(r *http.Request) string {
	// Try to get token from cookie first
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			ClearTokenCookie(w)
			writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
			return
		}

		// Get full employee from database
		var employee models.Employee
		if err := database.GetDB().WithContext(r.Context()).First(&employee, claims.EmployeeID).Error; err != nil {
			ClearTokenCookie(w)
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		if !employee.IsActive() {
			writeError(w, http.StatusForbidden, "account is inactive")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEmployee(r.Context(), &employee)))
	})
}

// passwordChangeAllowed lists what a user with a temporary password may do.
var passwordChangeAllowed = map[string]bool{
	"/api/me":          true,
	"/api/me/password": true,
	"/api/auth/logout": true,
}

func RequirePasswordChange(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employee := GetEmployeeFromContext(r.Context())
		if employee != nil && employee.MustChangePassword && !passwordChangeAllowed[r.URL.Path] {
			writeError(w, http.StatusForbidden, "password change required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			employee := GetEmployeeFromContext(r.Context())
			if employee == nil {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}

			for _, role := range roles {
				if employee.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func WithEmployee(ctx context.Context, employee *models.Employee) context.Context {
	return context.WithValue(ctx, EmployeeContextKey, employee)
}

func GetEmployeeFromContext(ctx context.Context) *models.Employee {
	employee, ok := ctx.Value(EmployeeContextKey).(*models.Employee)
	if !ok {
		return nil
	}
	return employee
}
