package api

import (
	"context"
	"fmt"

	"github.com/jmallet/capgen/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the service's token response.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        session.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.postJSON(ctx, "/auth/login", "", loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access token")
	}
	return &result, nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResult is the created account.
type SignupResult struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Signup registers a new account. A response without an id means the
// account was not created, whatever the status code said.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*SignupResult, error) {
	var result SignupResult
	err := c.postJSON(ctx, "/auth/signup", "", signupRequest{Name: name, Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	if result.ID == 0 {
		return nil, fmt.Errorf("signup response missing user id")
	}
	return &result, nil
}
