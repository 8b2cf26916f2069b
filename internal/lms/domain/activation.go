package domain

// PendingUser is the registration data parked inside an activation ticket
// until the emailed code is confirmed.
type PendingUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// ActivationTicket is the signed token returned to the client plus the code
// that was emailed to the user.
type ActivationTicket struct {
	Token string
	Code  string
}
