// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jeranaias/ytnews-tui/internal/cache"
)

// CategoriesService covers /categories. Writes need a moderator.
type CategoriesService struct {
	c *Client
}

// Announcements embed their categories, so every announcement view is
// stale after a category write too.
func categoriesChanged() []cache.Key {
	return append([]cache.Key{
		cache.Prefix("categories"),
		cache.Prefix("category"),
		cache.Prefix("category-slug"),
		cache.Prefix("announcement"),
	}, announcementsChanged(0)...)
}

func (s *CategoriesService) List(ctx context.Context, skip, limit int) ([]Category, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []Category
	err := s.c.getCached(ctx, cache.NewKey("categories", skip, limit),
		request{path: "/categories/", query: pageQuery(skip, limit)}, &out)
	return out, err
}

func (s *CategoriesService) Get(ctx context.Context, id int) (*Category, error) {
	var cat Category
	if err := s.c.getCached(ctx, cache.NewKey("category", id), request{path: fmt.Sprintf("/categories/%d", id)}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CategoriesService) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	var cat Category
	err := s.c.getCached(ctx, cache.NewKey("category-slug", slug),
		request{path: "/categories/slug/" + url.PathEscape(slug)}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CategoriesService) Create(ctx context.Context, in CategoryCreate) (*Category, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var cat Category
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/categories/", body: in}, &cat); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, categoriesChanged()...)
	return &cat, nil
}

func (s *CategoriesService) Update(ctx context.Context, id int, in CategoryUpdate) (*Category, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var cat Category
	if err := s.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/categories/%d", id), body: in}, &cat); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, categoriesChanged()...)
	return &cat, nil
}

func (s *CategoriesService) Delete(ctx context.Context, id int) error {
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/categories/%d", id)}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, categoriesChanged()...)
	return nil
}
