// Package api defines the contract with the consulting-marketplace backend:
// the endpoint set consumed by the onboarding flows, the payload types, and
// the error shape carrying the backend's human-readable message.
package api

import (
	"context"
	"fmt"
)

// Role is a platform account role. This client only ever holds sessions for
// RoleClient and RoleConsultant.
type Role string

const (
	RoleClient     Role = "client"
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

// Allowed reports whether the role may hold a session in this client.
func (r Role) Allowed() bool {
	return r == RoleClient || r == RoleConsultant
}

// User is the account record returned by the backend on successful
// authentication. Immutable once stored; replaced wholesale on re-login.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Role     Role   `json:"role"`
}

// AuthPayload is the success body of login, signup, and register.
type AuthPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SendOTPResult acknowledges an OTP send. OTP is only echoed by development
// backends and must never be logged.
type SendOTPResult struct {
	OTP string `json:"otp,omitempty"`
}

// VerifyOTPResult is the success body of verify-otp. When IsNewUser is true
// no session exists yet; RegistrationToken authorizes the complete-profile
// flow for the verified mobile.
type VerifyOTPResult struct {
	Token             string `json:"token,omitempty"`
	User              *User  `json:"user,omitempty"`
	IsNewUser         bool   `json:"isNewUser,omitempty"`
	RegistrationToken string `json:"registrationToken,omitempty"`
}

// Subcategory is one entry under a category.
type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is one entry of the consultant category hierarchy.
type Category struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Subcategories []Subcategory `json:"subcategories"`
}

// CategorySelection is one row of a consultant's category picks. A row is
// submitted only when all four fields are set.
type CategorySelection struct {
	CategoryID      string `json:"categoryId"`
	CategoryName    string `json:"categoryName"`
	SubcategoryID   string `json:"subcategoryId"`
	SubcategoryName string `json:"subcategoryName"`
}

// Complete reports whether every field of the row is set.
func (s CategorySelection) Complete() bool {
	return s.CategoryID != "" && s.CategoryName != "" && s.SubcategoryID != "" && s.SubcategoryName != ""
}

// Empty reports whether every field of the row is unset.
func (s CategorySelection) Empty() bool {
	return s.CategoryID == "" && s.CategoryName == "" && s.SubcategoryID == "" && s.SubcategoryName == ""
}

// SignupRequest is the signup payload. Category/Subcategory mirror the first
// complete selection row for older backend contracts.
type SignupRequest struct {
	FullName    string              `json:"fullName"`
	Email       string              `json:"email"`
	Mobile      string              `json:"mobile"`
	Password    string              `json:"password"`
	Role        Role                `json:"role"`
	Category    string              `json:"category,omitempty"`
	Subcategory string              `json:"subcategory,omitempty"`
	Categories  []CategorySelection `json:"categories,omitempty"`
}

// RegisterRequest completes a deferred registration started by an OTP verify
// that found no account. RegistrationToken and Mobile come from that step.
type RegisterRequest struct {
	RegistrationToken string              `json:"registrationToken"`
	Mobile            string              `json:"mobile"`
	FullName          string              `json:"fullName"`
	Email             string              `json:"email"`
	Password          string              `json:"password"`
	Role              Role                `json:"role"`
	Category          string              `json:"category,omitempty"`
	Subcategory       string              `json:"subcategory,omitempty"`
	Categories        []CategorySelection `json:"categories,omitempty"`
}

// APIError is a structured error response from the backend. Message carries
// the backend's wording; outcome classification depends on it. Code is set
// by newer backend revisions and takes precedence over Message matching.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Backend is the set of backend endpoints the onboarding core consumes.
type Backend interface {
	Login(ctx context.Context, identifier, password string) (*AuthPayload, error)
	SendOTP(ctx context.Context, mobile string) (*SendOTPResult, error)
	VerifyOTP(ctx context.Context, mobile, code string) (*VerifyOTPResult, error)
	Signup(ctx context.Context, req SignupRequest) (*AuthPayload, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthPayload, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, password string) error
	Categories(ctx context.Context) ([]Category, error)
}
