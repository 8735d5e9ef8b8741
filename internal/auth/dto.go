package auth

import "github.com/eliasfjaere/utlaan-backend/internal/users"

// LoginRequest carries the credentials posted to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the bearer token and the authenticated user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        users.UserView `json:"user"`
}
