package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TokenDuration = 24 * time.Hour

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

// HandleLogin exchanges portal credentials for a session token. The body
// is form-encoded and carries best-effort browser fingerprints alongside
// the credentials; every attempt is recorded.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	userName := r.PostFormValue("user_name")
	password := r.PostFormValue("password")
	if userName == "" || password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]map[string]string{
			"messages": loginFieldMessages(userName, password),
		})
		return
	}

	event := models.LoginEvent{
		UserName:        userName,
		Browser:         r.PostFormValue("browser"),
		OperatingSystem: r.PostFormValue("operatingSystem"),
		IPAddress:       r.PostFormValue("ipaddress"),
		Location:        r.PostFormValue("location"),
	}

	var user models.User
	err := h.db.Where("user_name = ?", userName).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	}
	if err != nil {
		h.db.Create(&event)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	event.UserID = user.ID
	event.Succeeded = true
	h.db.Create(&event)

	token, err := h.GenerateToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to generate token"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func loginFieldMessages(userName, password string) map[string]string {
	messages := map[string]string{}
	if userName == "" {
		messages["user_name"] = "Username is required"
	}
	if password == "" {
		messages["password"] = "Password is required"
	}
	return messages
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// AuthInput is embedded by operation inputs that require a session.
type AuthInput struct {
	Cookie string `header:"Cookie"`
	APIKey string `header:"X-API-KEY"`
}

// Authorize resolves the user behind an operation input, checking the
// API key header first and falling back to the session cookie.
func (h *AuthHandler) Authorize(ctx context.Context, in *AuthInput) (uint, error) {
	if in.APIKey != "" {
		var keyModel models.APIKey
		if err := h.db.Where("key = ?", in.APIKey).First(&keyModel).Error; err == nil {
			if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
				return 0, huma.Error401Unauthorized("API key expired")
			}
			h.db.Model(&keyModel).Update("last_used_at", time.Now())
			return keyModel.UserID, nil
		}
	}

	tokenString := cookieValue(in.Cookie, "auth_token")
	if tokenString == "" {
		return 0, huma.Error401Unauthorized("No token found")
	}

	userID, err := h.parseToken(tokenString)
	if err != nil {
		return 0, huma.Error401Unauthorized("Invalid token")
	}
	return userID, nil
}

func (h *AuthHandler) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	return uint(userIDFloat), nil
}

func cookieValue(header, name string) string {
	r := http.Request{Header: http.Header{"Cookie": []string{header}}}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

type MeOutput struct {
	Body models.User
}

// HandleMe returns the user behind the current session.
func (h *AuthHandler) HandleMe(ctx context.Context, input *struct{ AuthInput }) (*MeOutput, error) {
	userID, err := h.Authorize(ctx, &input.AuthInput)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}
	return &MeOutput{Body: user}, nil
}
