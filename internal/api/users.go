// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jeranaias/ytnews-tui/internal/cache"
)

// UsersService covers /users. Everything except Me and UpdateMe requires
// an admin.
type UsersService struct {
	c *Client
}

func usersChanged(id int) []cache.Key {
	keys := []cache.Key{cache.Prefix("users"), cache.NewKey("me")}
	if id > 0 {
		keys = append(keys, cache.NewKey("user", id))
	}
	return keys
}

func (s *UsersService) List(ctx context.Context, skip, limit int) ([]User, error) {
	var out []User
	err := s.c.getCached(ctx, cache.NewKey("users", skip, limit),
		request{path: "/users/", query: pageQuery(skip, limit)}, &out)
	return out, err
}

func (s *UsersService) Get(ctx context.Context, id int) (*User, error) {
	var u User
	if err := s.c.getCached(ctx, cache.NewKey("user", id), request{path: fmt.Sprintf("/users/%d", id)}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me returns the signed-in user's profile.
func (s *UsersService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.c.getCached(ctx, cache.NewKey("me"), request{path: "/users/me"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) Create(ctx context.Context, in UserCreate) (*User, error) {
	if in.Role == "" {
		in.Role = "user"
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/users/", body: in}, &u); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, usersChanged(u.ID)...)
	return &u, nil
}

func (s *UsersService) Update(ctx context.Context, id int, in UserUpdate) (*User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/users/%d", id), body: in}, &u); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, usersChanged(id)...)
	return &u, nil
}

// UpdateMe edits the signed-in user's own profile. The backend refuses a
// role change here.
func (s *UsersService) UpdateMe(ctx context.Context, in UserUpdate) (*User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.c.do(ctx, request{method: http.MethodPut, path: "/users/me", body: in}, &u); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, usersChanged(u.ID)...)
	return &u, nil
}

func (s *UsersService) Delete(ctx context.Context, id int) error {
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/users/%d", id)}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, usersChanged(id)...)
	return nil
}
