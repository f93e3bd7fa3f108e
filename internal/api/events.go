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

// EventsService covers /events and event registrations.
type EventsService struct {
	c *Client
}

// Registration counts are embedded in every event view, so all event keys
// go stale together.
func eventsChanged() []cache.Key {
	return []cache.Key{
		cache.Prefix("events"),
		cache.Prefix("events-upcoming"),
		cache.Prefix("event"),
		cache.Prefix("my-registrations"),
		cache.Prefix("event-registrations"),
	}
}

func (s *EventsService) List(ctx context.Context) ([]EventList, error) {
	var out []EventList
	err := s.c.getCached(ctx, cache.NewKey("events"), request{path: "/events/"}, &out)
	return out, err
}

// Upcoming returns published events that have not started yet.
func (s *EventsService) Upcoming(ctx context.Context) ([]EventList, error) {
	var out []EventList
	err := s.c.getCached(ctx, cache.NewKey("events-upcoming"), request{path: "/events/upcoming"}, &out)
	return out, err
}

func (s *EventsService) GetBySlug(ctx context.Context, slug string) (*Event, error) {
	var e Event
	if err := s.c.getCached(ctx, cache.NewKey("event", slug), request{path: "/events/" + url.PathEscape(slug)}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create adds an event. An empty status defaults to draft.
func (s *EventsService) Create(ctx context.Context, in EventCreate) (*Event, error) {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	var e Event
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/events/", body: in}, &e); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, eventsChanged()...)
	return &e, nil
}

func (s *EventsService) Update(ctx context.Context, id int, in EventUpdate) (*Event, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var e Event
	if err := s.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/events/%d", id), body: in}, &e); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, eventsChanged()...)
	return &e, nil
}

func (s *EventsService) Delete(ctx context.Context, id int) error {
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/events/%d", id)}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, eventsChanged()...)
	return nil
}

// Register signs up for an event. The backend refuses with a 400 when the
// event is closed, past its deadline, full, or already joined.
func (s *EventsService) Register(ctx context.Context, in EventRegistrationCreate) (*EventRegistration, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var r EventRegistration
	path := fmt.Sprintf("/events/%d/register", in.EventID)
	if err := s.c.do(ctx, request{method: http.MethodPost, path: path, body: in}, &r); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, eventsChanged()...)
	return &r, nil
}

func (s *EventsService) MyRegistrations(ctx context.Context) ([]EventRegistration, error) {
	var out []EventRegistration
	err := s.c.getCached(ctx, cache.NewKey("my-registrations"), request{path: "/events/registrations/my"}, &out)
	return out, err
}

func (s *EventsService) CancelRegistration(ctx context.Context, registrationID int) error {
	path := fmt.Sprintf("/events/registrations/%d", registrationID)
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: path}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, eventsChanged()...)
	return nil
}

// Registrations lists everyone signed up for an event (moderator).
func (s *EventsService) Registrations(ctx context.Context, eventID int) ([]EventRegistration, error) {
	var out []EventRegistration
	err := s.c.getCached(ctx, cache.NewKey("event-registrations", eventID),
		request{path: fmt.Sprintf("/events/%d/registrations", eventID)}, &out)
	return out, err
}
