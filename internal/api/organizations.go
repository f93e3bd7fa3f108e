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

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// OrganizationsService covers /organizations. Any signed-in user may
// create one and becomes its first employee.
type OrganizationsService struct {
	c *Client
}

func organizationsChanged() []cache.Key {
	return []cache.Key{
		cache.Prefix("organizations"),
		cache.Prefix("organization"),
		cache.Prefix("organization-slug"),
	}
}

func (s *OrganizationsService) List(ctx context.Context, skip, limit int) ([]Organization, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []Organization
	err := s.c.getCached(ctx, cache.NewKey("organizations", skip, limit),
		request{path: "/organizations/", query: pageQuery(skip, limit)}, &out)
	return out, err
}

func (s *OrganizationsService) Get(ctx context.Context, id int) (*Organization, error) {
	var o Organization
	err := s.c.getCached(ctx, cache.NewKey("organization", id),
		request{path: fmt.Sprintf("/organizations/%d", id)}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OrganizationsService) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	var o Organization
	err := s.c.getCached(ctx, cache.NewKey("organization-slug", slug),
		request{path: "/organizations/slug/" + url.PathEscape(slug)}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OrganizationsService) Create(ctx context.Context, in OrganizationCreate) (*Organization, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var o Organization
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/organizations/", body: in}, &o); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, cache.Prefix("organizations"), cache.NewKey("my-organizations"))
	return &o, nil
}

func (s *OrganizationsService) Update(ctx context.Context, id int, in OrganizationUpdate) (*Organization, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var o Organization
	err := s.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/organizations/%d", id), body: in}, &o)
	if err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, organizationsChanged()...)
	return &o, nil
}

func (s *OrganizationsService) Delete(ctx context.Context, id int) error {
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/organizations/%d", id)}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, organizationsChanged()...)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeesService covers /employees.
type EmployeesService struct {
	c *Client
}

func employeesChanged(orgID int) []cache.Key {
	keys := []cache.Key{cache.NewKey("my-organizations")}
	if orgID > 0 {
		return append(keys, cache.NewKey("employees", orgID))
	}
	return append(keys, cache.Prefix("employees"))
}

// MyOrganizations lists the signed-in user's employments.
func (s *EmployeesService) MyOrganizations(ctx context.Context) ([]Employee, error) {
	var out []Employee
	err := s.c.getCached(ctx, cache.NewKey("my-organizations"), request{path: "/employees/my-organizations"}, &out)
	return out, err
}

func (s *EmployeesService) ByOrganization(ctx context.Context, orgID int) ([]Employee, error) {
	var out []Employee
	err := s.c.getCached(ctx, cache.NewKey("employees", orgID),
		request{path: fmt.Sprintf("/employees/organization/%d", orgID)}, &out)
	return out, err
}

func (s *EmployeesService) Create(ctx context.Context, in EmployeeCreate) (*Employee, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var e Employee
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/employees/", body: in}, &e); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, employeesChanged(in.OrganizationID)...)
	return &e, nil
}

func (s *EmployeesService) Update(ctx context.Context, id int, in EmployeeUpdate) (*Employee, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var e Employee
	if err := s.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/employees/%d", id), body: in}, &e); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, employeesChanged(e.OrganizationID)...)
	return &e, nil
}

// Delete removes an employment. The organization is unknown here, so every
// employee list is dropped.
func (s *EmployeesService) Delete(ctx context.Context, id int) error {
	if err := s.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/employees/%d", id)}, nil); err != nil {
		return err
	}
	s.c.invalidate(ctx, employeesChanged(0)...)
	return nil
}

// =============================================================================
// JOIN REQUESTS
// =============================================================================

// JoinRequestsService covers /join-requests.
type JoinRequestsService struct {
	c *Client
}

// Create asks to join an organization.
func (s *JoinRequestsService) Create(ctx context.Context, in JoinRequestCreate) (*JoinRequest, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var jr JoinRequest
	if err := s.c.do(ctx, request{method: http.MethodPost, path: "/join-requests/", body: in}, &jr); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx, cache.NewKey("join-requests", in.OrganizationID))
	return &jr, nil
}

// ByOrganization lists requests to an organization the caller belongs to.
func (s *JoinRequestsService) ByOrganization(ctx context.Context, orgID int) ([]JoinRequest, error) {
	var out []JoinRequest
	err := s.c.getCached(ctx, cache.NewKey("join-requests", orgID),
		request{path: fmt.Sprintf("/join-requests/organization/%d", orgID)}, &out)
	return out, err
}

func (s *JoinRequestsService) Accept(ctx context.Context, id int) (*JoinRequest, error) {
	return s.resolve(ctx, id, "accept")
}

func (s *JoinRequestsService) Reject(ctx context.Context, id int) (*JoinRequest, error) {
	return s.resolve(ctx, id, "reject")
}

func (s *JoinRequestsService) resolve(ctx context.Context, id int, action string) (*JoinRequest, error) {
	var jr JoinRequest
	path := fmt.Sprintf("/join-requests/%d/%s", id, action)
	if err := s.c.do(ctx, request{method: http.MethodPost, path: path}, &jr); err != nil {
		return nil, err
	}
	s.c.invalidate(ctx,
		cache.NewKey("join-requests", jr.OrganizationID),
		cache.NewKey("employees", jr.OrganizationID),
		cache.NewKey("my-organizations"),
	)
	return &jr, nil
}
