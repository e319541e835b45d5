package client

import "time"

// User is the public profile returned by the server.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Session is the credential state of one logged-in user. It is owned by the
// caller and passed to every authenticated call; the client keeps no copy.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// Active reports whether s carries an access token.
func (s *Session) Active() bool {
	return s != nil && s.AccessToken != ""
}

// Clear drops all credentials.
func (s *Session) Clear() {
	s.User = nil
	s.AccessToken = ""
	s.RefreshToken = ""
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	User           *User  `json:"user"`
	ActivationLink string `json:"activationLink"`
}
