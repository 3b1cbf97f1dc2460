package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicflow/clinicflow/internal/actor"
	"github.com/clinicflow/clinicflow/internal/appointments"
)

// RoleClaims are the JWT claims carried by dashboard tokens.
type RoleClaims struct {
	Role       string `json:"role"`
	DoctorID   string `json:"doctor_id,omitempty"`
	DoctorName string `json:"doctor_name,omitempty"`
	jwt.RegisteredClaims
}

// RoleJWT enforces an HMAC-signed JWT and places the caller's role in
// request context. Doctor tokens without a doctor id are rejected:
// doctor-scoped data is fail-closed until a doctor is selected.
func RoleJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := RoleClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if !appointments.ValidRole(claims.Role) {
				http.Error(w, "unknown role", http.StatusForbidden)
				return
			}
			role := appointments.Role(claims.Role)
			if role == appointments.RoleDoctor && strings.TrimSpace(claims.DoctorID) == "" {
				http.Error(w, "doctor not selected", http.StatusForbidden)
				return
			}
			ctx := actor.WithActor(r.Context(), actor.Actor{
				Role:       role,
				DoctorID:   claims.DoctorID,
				DoctorName: claims.DoctorName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
