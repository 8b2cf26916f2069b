package lmssdk

import "time"

// Avatar is a reference to an externally hosted profile image.
type Avatar struct {
	PublicID string `json:"public_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// CourseRef links a user to a purchased course.
type CourseRef struct {
	CourseID string `json:"courseId"`
}

// User is the public view of an account.
type User struct {
	ID         string      `json:"_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       string      `json:"role"`
	IsVerified bool        `json:"isVerified"`
	Avatar     *Avatar     `json:"avatar,omitempty"`
	Courses    []CourseRef `json:"courses"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// RegisterRequest is the body of POST /api/v1/registration.
type RegisterRequest struct {
	Name     string `json:"name" example:"Ada"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"hunter22"`
}

// RegisterResponse carries the activation token to send back with the
// emailed code.
type RegisterResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ActivationToken string `json:"activationToken"`
}

// ActivateRequest is the body of POST /api/v1/activate-user.
type ActivateRequest struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activation_code" example:"4821"`
}

// MessageResponse is a success envelope carrying only a message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginRequest is the body of POST /api/v1/login.
type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"hunter22"`
}

// SocialAuthRequest is the body of POST /api/v1/social-auth.
type SocialAuthRequest struct {
	Email  string `json:"email" example:"ada@example.com"`
	Name   string `json:"name" example:"Ada"`
	Avatar string `json:"avatar,omitempty" example:"https://cdn.example.com/ada.png"`
}

// SessionResponse is returned by login, social sign-in and refresh. The
// tokens are also set as cookies.
type SessionResponse struct {
	Success     bool   `json:"success"`
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// UsersResponse wraps the admin user listing.
type UsersResponse struct {
	Success bool   `json:"success"`
	Users   []User `json:"users"`
}

// UpdateInfoRequest is the body of PUT /api/v1/update-user-info. Empty
// fields are left unchanged.
type UpdateInfoRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdatePasswordRequest is the body of PUT /api/v1/update-password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateRoleRequest is the body of PUT /api/v1/update-user.
type UpdateRoleRequest struct {
	ID   string `json:"id"`
	Role string `json:"role" example:"admin"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
