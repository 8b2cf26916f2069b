package domain

import "time"

// Roles a user can hold. New accounts start as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Avatar is a reference to an externally hosted profile image.
type Avatar struct {
	PublicID string `json:"public_id,omitempty" bson:"public_id,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
}

// CourseRef links a user to a purchased course owned by another service.
type CourseRef struct {
	CourseID string `json:"courseId" bson:"course_id"`
}

// User is both the stored account record and the session snapshot. The
// password hash never leaves the service.
type User struct {
	ID           string      `json:"_id" bson:"_id"`
	Name         string      `json:"name" bson:"name"`
	Email        string      `json:"email" bson:"email"`
	PasswordHash string      `json:"-" bson:"password_hash,omitempty"`
	Role         string      `json:"role" bson:"role"`
	IsVerified   bool        `json:"isVerified" bson:"is_verified"`
	Avatar       *Avatar     `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Courses      []CourseRef `json:"courses" bson:"courses"`
	CreatedAt    time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updated_at"`
}

// HasPassword reports whether the account can log in with a password. Social
// sign-in accounts have none.
func (u User) HasPassword() bool { return u.PasswordHash != "" }
