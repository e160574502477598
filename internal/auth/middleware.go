package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionRefresh keeps browser sessions alive. When a request carries a
// valid auth_token cookie that is past half its lifetime, a fresh token
// is set on the response. The middleware never rejects a request;
// endpoints that need a session enforce it through Authorize.
func (h *AuthHandler) SessionRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("auth_token"); err == nil {
			h.renewIfDue(w, cookie.Value)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) renewIfDue(w http.ResponseWriter, tokenString string) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return
	}

	if remaining := time.Until(time.Unix(int64(exp), 0)); remaining >= TokenDuration/2 {
		return
	}

	newToken, err := h.GenerateToken(uint(userIDFloat))
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    newToken,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})
}
