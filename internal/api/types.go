// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jeranaias/ytnews-tui/internal/access"
)

// =============================================================================
// TIMESTAMPS
// =============================================================================

// Time accepts the backend's timestamps, which are ISO 8601 with or without
// a zone offset. Naive timestamps are taken as UTC.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses any layout the backend emits or a user is likely to type.
func ParseTime(s string) (Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{t}, nil
		}
	}
	return Time{}, fmt.Errorf("unrecognized time %q", s)
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// =============================================================================
// ENUMS
// =============================================================================

// Status values shared by announcements and events.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Join request states.
const (
	JoinPending  = "pending"
	JoinAccepted = "accepted"
	JoinRejected = "rejected"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name,omitempty"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// =============================================================================
// USERS
// =============================================================================

// User is a user profile as the API returns it.
type User struct {
	ID        int         `json:"id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name,omitempty"`
	Role      access.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt Time        `json:"created_at"`
	UpdatedAt *Time       `json:"updated_at,omitempty"`
}

// DisplayName prefers the full name and falls back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

type UserCreate struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	FullName string      `json:"full_name,omitempty"`
	Role     access.Role `json:"role" validate:"required,oneof=user moderator admin"`
}

type UserUpdate struct {
	Email    *string      `json:"email,omitempty" validate:"omitempty,email"`
	Password *string      `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName *string      `json:"full_name,omitempty"`
	Role     *access.Role `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
	IsActive *bool        `json:"is_active,omitempty"`
}

// =============================================================================
// CATEGORIES
// =============================================================================

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   *Time  `json:"updated_at,omitempty"`
}

type CategoryCreate struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

type CategoryUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
}

// =============================================================================
// ORGANIZATIONS AND EMPLOYEES
// =============================================================================

type Organization struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   *Time  `json:"updated_at,omitempty"`
}

type OrganizationCreate struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	Website     string `json:"website,omitempty" validate:"omitempty,url"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

type OrganizationUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty"`
	Logo        *string `json:"logo,omitempty"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Employee links a user to an organization. CanPost is enforced by the
// backend; the client only displays it.
type Employee struct {
	ID             int           `json:"id"`
	UserID         int           `json:"user_id"`
	OrganizationID int           `json:"organization_id"`
	Position       string        `json:"position"`
	IsActive       bool          `json:"is_active"`
	CanPost        bool          `json:"can_post"`
	CreatedAt      Time          `json:"created_at"`
	User           *User         `json:"user,omitempty"`
	Organization   *Organization `json:"organization,omitempty"`
}

type EmployeeCreate struct {
	UserID         int    `json:"user_id" validate:"required,gt=0"`
	OrganizationID int    `json:"organization_id" validate:"required,gt=0"`
	Position       string `json:"position" validate:"required,max=100"`
	CanPost        *bool  `json:"can_post,omitempty"`
}

type EmployeeUpdate struct {
	Position *string `json:"position,omitempty" validate:"omitempty,min=1,max=100"`
	IsActive *bool   `json:"is_active,omitempty"`
	CanPost  *bool   `json:"can_post,omitempty"`
}

type JoinRequest struct {
	ID             int          `json:"id"`
	UserID         int          `json:"user_id"`
	OrganizationID int          `json:"organization_id"`
	Position       string       `json:"position"`
	Message        string       `json:"message,omitempty"`
	Status         string       `json:"status"`
	CreatedAt      Time         `json:"created_at"`
	UpdatedAt      *Time        `json:"updated_at,omitempty"`
	User           User         `json:"user"`
	Organization   Organization `json:"organization"`
}

type JoinRequestCreate struct {
	OrganizationID int    `json:"organization_id" validate:"required,gt=0"`
	Position       string `json:"position" validate:"required,max=100"`
	Message        string `json:"message,omitempty"`
}

// =============================================================================
// ANNOUNCEMENTS
// =============================================================================

// Announcement is the full record including content.
type Announcement struct {
	ID             int           `json:"id"`
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	Content        string        `json:"content"`
	Excerpt        string        `json:"excerpt,omitempty"`
	CoverImage     string        `json:"cover_image,omitempty"`
	Status         string        `json:"status"`
	AuthorID       int           `json:"author_id"`
	Author         User          `json:"author"`
	Categories     []Category    `json:"categories"`
	OrganizationID *int          `json:"organization_id,omitempty"`
	EmployeeID     *int          `json:"employee_id,omitempty"`
	Organization   *Organization `json:"organization,omitempty"`
	Employee       *Employee     `json:"employee,omitempty"`
	PublishedAt    *Time         `json:"published_at,omitempty"`
	CreatedAt      Time          `json:"created_at"`
	UpdatedAt      *Time         `json:"updated_at,omitempty"`
}

// AnnouncementList is the list-view shape without content.
type AnnouncementList struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Excerpt        string     `json:"excerpt,omitempty"`
	CoverImage     string     `json:"cover_image,omitempty"`
	Status         string     `json:"status"`
	Author         User       `json:"author"`
	Categories     []Category `json:"categories"`
	OrganizationID *int       `json:"organization_id,omitempty"`
	EmployeeID     *int       `json:"employee_id,omitempty"`
	PublishedAt    *Time      `json:"published_at,omitempty"`
	CreatedAt      Time       `json:"created_at"`
}

type AnnouncementCreate struct {
	Title          string `json:"title" validate:"required,max=255"`
	Slug           string `json:"slug" validate:"required,max=255"`
	Content        string `json:"content"`
	Excerpt        string `json:"excerpt,omitempty"`
	CoverImage     string `json:"cover_image,omitempty"`
	Status         string `json:"status" validate:"omitempty,oneof=draft published archived"`
	CategoryIDs    []int  `json:"category_ids"`
	OrganizationID *int   `json:"organization_id,omitempty"`
	EmployeeID     *int   `json:"employee_id,omitempty"`
}

type AnnouncementUpdate struct {
	Title          *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Slug           *string `json:"slug,omitempty" validate:"omitempty,min=1,max=255"`
	Content        *string `json:"content,omitempty"`
	Excerpt        *string `json:"excerpt,omitempty"`
	CoverImage     *string `json:"cover_image,omitempty"`
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	CategoryIDs    []int   `json:"category_ids,omitempty"`
	OrganizationID *int    `json:"organization_id,omitempty"`
	EmployeeID     *int    `json:"employee_id,omitempty"`
}

// AnnouncementFilter narrows the moderator listing.
type AnnouncementFilter struct {
	Skip       int
	Limit      int
	Status     string
	CategoryID int
}

// =============================================================================
// EVENTS
// =============================================================================

type Event struct {
	ID                   int           `json:"id"`
	Title                string        `json:"title"`
	Slug                 string        `json:"slug"`
	Description          string        `json:"description"`
	Excerpt              string        `json:"excerpt,omitempty"`
	CoverImage           string        `json:"cover_image,omitempty"`
	Location             string        `json:"location,omitempty"`
	EventDate            Time          `json:"event_date"`
	RegistrationDeadline *Time         `json:"registration_deadline,omitempty"`
	MaxParticipants      *int          `json:"max_participants,omitempty"`
	Status               string        `json:"status"`
	AuthorID             int           `json:"author_id"`
	OrganizationID       *int          `json:"organization_id,omitempty"`
	PublishedAt          *Time         `json:"published_at,omitempty"`
	CreatedAt            Time          `json:"created_at"`
	UpdatedAt            *Time         `json:"updated_at,omitempty"`
	Author               User          `json:"author"`
	Organization         *Organization `json:"organization,omitempty"`
	RegistrationsCount   int           `json:"registrations_count"`
}

// SpotsLeft returns the remaining capacity, or -1 when unlimited.
func (e *Event) SpotsLeft() int {
	if e.MaxParticipants == nil {
		return -1
	}
	if left := *e.MaxParticipants - e.RegistrationsCount; left > 0 {
		return left
	}
	return 0
}

type EventList struct {
	ID                 int           `json:"id"`
	Title              string        `json:"title"`
	Slug               string        `json:"slug"`
	Excerpt            string        `json:"excerpt,omitempty"`
	CoverImage         string        `json:"cover_image,omitempty"`
	Location           string        `json:"location,omitempty"`
	EventDate          Time          `json:"event_date"`
	Status             string        `json:"status"`
	Author             User          `json:"author"`
	Organization       *Organization `json:"organization,omitempty"`
	RegistrationsCount int           `json:"registrations_count"`
}

type EventCreate struct {
	Title                string `json:"title" validate:"required"`
	Slug                 string `json:"slug" validate:"required"`
	Description          string `json:"description" validate:"required"`
	Excerpt              string `json:"excerpt,omitempty"`
	CoverImage           string `json:"cover_image,omitempty"`
	Location             string `json:"location,omitempty"`
	EventDate            Time   `json:"event_date"`
	RegistrationDeadline *Time  `json:"registration_deadline,omitempty"`
	MaxParticipants      *int   `json:"max_participants,omitempty" validate:"omitempty,gt=0"`
	OrganizationID       *int   `json:"organization_id,omitempty"`
	Status               string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type EventUpdate struct {
	Title                *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Slug                 *string `json:"slug,omitempty" validate:"omitempty,min=1"`
	Description          *string `json:"description,omitempty"`
	Excerpt              *string `json:"excerpt,omitempty"`
	CoverImage           *string `json:"cover_image,omitempty"`
	Location             *string `json:"location,omitempty"`
	EventDate            *Time   `json:"event_date,omitempty"`
	RegistrationDeadline *Time   `json:"registration_deadline,omitempty"`
	MaxParticipants      *int    `json:"max_participants,omitempty" validate:"omitempty,gt=0"`
	Status               *string `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	OrganizationID       *int    `json:"organization_id,omitempty"`
}

// EventRegistrationCreate signs up the current user, or a guest when the
// guest fields are filled in.
type EventRegistrationCreate struct {
	EventID    int    `json:"event_id" validate:"required,gt=0"`
	GuestName  string `json:"guest_name,omitempty"`
	GuestEmail string `json:"guest_email,omitempty" validate:"omitempty,email"`
	GuestPhone string `json:"guest_phone,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type EventRegistration struct {
	ID           int    `json:"id"`
	EventID      int    `json:"event_id"`
	UserID       *int   `json:"user_id,omitempty"`
	Status       string `json:"status"`
	RegisteredAt Time   `json:"registered_at"`
	GuestName    string `json:"guest_name,omitempty"`
	GuestEmail   string `json:"guest_email,omitempty"`
	GuestPhone   string `json:"guest_phone,omitempty"`
	Notes        string `json:"notes,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// =============================================================================
// UPLOADS
// =============================================================================

type UploadResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type MultiUploadResult struct {
	Files []UploadResult `json:"files"`
}
