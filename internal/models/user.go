package models

import (
	"gorm.io/gorm"
)

// User is a tutoring-business operator account.
type User struct {
	gorm.Model
	UserName     string `json:"user_name" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	BusinessName string `json:"business_name"`
}

// LoginEvent records the fingerprint fields posted with each credential
// login attempt.
type LoginEvent struct {
	gorm.Model
	UserID          uint   `json:"user_id"`
	UserName        string `json:"user_name"`
	Browser         string `json:"browser"`
	OperatingSystem string `json:"operating_system"`
	IPAddress       string `json:"ipaddress"`
	Location        string `json:"location"`
	Succeeded       bool   `json:"succeeded"`
}
