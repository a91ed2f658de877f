// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"
)

// TenantRole is a member's permission level within a tenant.
type TenantRole string

const (
	RoleOwner  TenantRole = "owner"
	RoleAdmin  TenantRole = "admin"
	RoleMember TenantRole = "member"
	RoleViewer TenantRole = "viewer"
)

// Tenant is one organization on a Gantry hub.
type Tenant struct {
	// ID is the stable tenant identifier ("tn-acme").
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Plan is the subscription tier ("free", "team", "enterprise").
	Plan string `json:"plan,omitempty" yaml:"plan,omitempty"`

	// Suspended marks a tenant whose access is administratively
	// paused; usage records are retained.
	Suspended bool `json:"suspended,omitempty" yaml:"suspended,omitempty"`

	// CreatedAt is when the tenant was provisioned.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	// Members holds the tenant's member list.
	Members []TenantMember `json:"members,omitempty" yaml:"members,omitempty"`

	// Usage holds recent usage windows, newest first.
	Usage []UsageWindow `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Validate checks the fields a tenant record must carry.
func (t *Tenant) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tenant missing id")
	}
	if t.Name == "" {
		return fmt.Errorf("tenant %q missing name", t.ID)
	}
	seen := make(map[string]bool, len(t.Members))
	for _, member := range t.Members {
		if member.UserID == "" {
			return fmt.Errorf("tenant %q has member without user id", t.ID)
		}
		if seen[member.UserID] {
			return fmt.Errorf("tenant %q lists member %q twice", t.ID, member.UserID)
		}
		seen[member.UserID] = true
	}
	return nil
}

// TenantMember is one user's membership in a tenant.
type TenantMember struct {
	// UserID is the hub-wide user identifier.
	UserID string `json:"user_id" yaml:"user_id"`

	// DisplayName is the name shown in the member list.
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// Role is the member's permission level.
	Role TenantRole `json:"role" yaml:"role"`

	// JoinedAt is when the membership was created.
	JoinedAt time.Time `json:"joined_at,omitempty" yaml:"joined_at,omitempty"`

	// LastSeenAt is the member's most recent activity; zero when the
	// member has never signed in.
	LastSeenAt time.Time `json:"last_seen_at,omitempty" yaml:"last_seen_at,omitempty"`
}

// UsageWindow aggregates a tenant's resource consumption over one
// reporting window.
type UsageWindow struct {
	// Start and End bound the window, half-open [Start, End).
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`

	// GPUSeconds is total GPU occupancy across all workstations.
	GPUSeconds float64 `json:"gpu_seconds" yaml:"gpu_seconds"`

	// TokensIn and TokensOut count inference tokens through hub
	// endpoints.
	TokensIn  uint64 `json:"tokens_in,omitempty" yaml:"tokens_in,omitempty"`
	TokensOut uint64 `json:"tokens_out,omitempty" yaml:"tokens_out,omitempty"`

	// PeakVRAMBytes is the largest simultaneous VRAM reservation
	// observed in the window.
	PeakVRAMBytes uint64 `json:"peak_vram_bytes,omitempty" yaml:"peak_vram_bytes,omitempty"`
}
