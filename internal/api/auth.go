// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthService covers /auth and the token-scoped profile lookup.
type AuthService struct {
	c *Client
}

// Login exchanges credentials for a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	body := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := Validate(body); err != nil {
		return "", err
	}

	var tok TokenResponse
	err := s.c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body}, &tok)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("login response carried no access token")
	}
	// Requests carry the token as "Authorization: Bearer"
	if tok.TokenType != "" && !strings.EqualFold(tok.TokenType, "bearer") {
		return "", fmt.Errorf("login response carried unsupported token type %q", tok.TokenType)
	}
	return tok.AccessToken, nil
}

// Register creates an account. It does not sign in.
func (s *AuthService) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := Validate(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: in}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentUser fetches the profile the given token belongs to. It never
// reads or writes the cache, because it runs before the session owns the
// token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	var u User
	if err := s.c.do(ctx, request{method: http.MethodGet, path: "/users/me", token: token}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
