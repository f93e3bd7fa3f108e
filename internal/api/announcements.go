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

// AnnouncementsService covers /announcements. ListPublished and the
// single-record reads are public; the rest need a moderator.
type AnnouncementsService struct {
	c *Client
}

func announcementsChanged(id int) []cache.Key {
	keys := []cache.Key{
		cache.Prefix("announcements"),
		cache.Prefix("announcements-all"),
		cache.Prefix("announcement-slug"),
	}
	if id > 0 {
		keys = append(keys, cache.NewKey("announcement", id))
	}
	return keys
}

// ListPublished returns published announcements, newest first.
func (s *AnnouncementsService) ListPublished(ctx context.Context, skip, limit int) ([]AnnouncementList, error) {
	var out []AnnouncementList
	err := s.c.getCached(ctx, cache.NewKey("announcements", skip, limit),
		request{path: "/announcements/", query: pageQuery(skip, limit)}, &out)
	return out, err
}

// ListAll returns announcements in every status, optionally filtered.
func (s *AnnouncementsService) ListAll(ctx context.Context, f AnnouncementFilter) ([]AnnouncementList, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	q := pageQuery(f.Skip, f.Limit)
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.CategoryID > 0 {
		q.Set("category_id", fmt.Sprint(f.CategoryID))
	}

	var out []AnnouncementList
	key := cache.NewKey("announcements-all", f.Skip, f.Limit, f.Status, f.CategoryID)
	err := s.c.getCached(ctx, key, request{path: "/announcements/all", query: q}, &out)
	return out, err
}

func (s *AnnouncementsService) Get(ctx context.Context, id int) (*Announcement, error) {
	var a Announcement
	err := s.c.getCached(ctx, cache.NewKey("announcement", id),
		request{path: fmt.Sprintf("/announcements/%d", id)}, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AnnouncementsService) GetBySlug(ctx context.Context, slug string) (*Announcement, error) {
	var a Announcement
	err := s.c.getCached(ctx, cache.NewKey("announcement-slug", slug),
		request{path: "/announcements/slug/" + url.PathEscape(slug)}, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create publishes a new announcement. An empty status defaults to draft.
func (s *AnnouncementsService) Create(ctx context.Context, in AnnouncementCreate) (*Announcement, error) {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.CategoryIDs == nil {
		in.CategoryIDs = []int{}
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	var a Announcement
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/announcements/", body: in}, &a); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, announcementsChanged(a.ID)...)
	return &a, nil
}

func (s *AnnouncementsService) Update(ctx context.Context, id int, in AnnouncementUpdate) (*Announcement, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var a Announcement
	err := s.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/announcements/%d", id), body: in}, &a)
	if err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, announcementsChanged(id)...)
	return &a, nil
}

func (s *AnnouncementsService) Delete(ctx context.Context, id int) error {
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/announcements/%d", id)}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, announcementsChanged(id)...)
	return nil
}
