package models

// PublicAccount never carries the email or password hash.
type PublicAccount struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Wallet string `json:"wallet"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type LoginResult struct {
	Token string        `json:"token"`
	User  PublicAccount `json:"user"`
}
