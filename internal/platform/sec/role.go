// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

// Package sec provides security primitives for the gateway: the procurement
// role model and the signed session cookie service.
//
// # Architecture
//
// This package isolates security-sensitive code (role authorization, cookie
// signing) from the session lifecycle logic. It is injected into the HTTP
// layer via constructors.
package sec

import "strconv"

// # Procurement Roles

// Role is the numeric authorization code assigned to an account by the
// upstream e-procurement platform. The wire format is a string ("1".."5").
type Role int

const (
	// RoleUnknown marks an unparseable or absent role code.
	RoleUnknown Role = 0

	// Platform administration: user management, master data
	RoleSuperAdmin Role = 1

	// Buyer side: publishes offers/tenders, runs negotiation rounds
	RolePurchasing Role = 2

	// President director: winner approval
	RolePresdir Role = 3

	// Reviewer: company-profile verification
	RoleReview Role = 4

	// Vendor side: registration, proposals
	RoleSupplier Role = 5
)

// # Conversions

// roleTags maps each role to the tag string the upstream uses to build
// role-scoped API paths.
var roleTags = map[Role]string{
	RoleSuperAdmin: "superadmin",
	RolePurchasing: "purchasing",
	RolePresdir:    "presdir",
	RoleReview:     "review",
	RoleSupplier:   "supplier",
}

// roleLabels maps each role to its human-readable display name.
var roleLabels = map[Role]string{
	RoleSuperAdmin: "Super Admin",
	RolePurchasing: "Purchasing",
	RolePresdir:    "Presdir",
	RoleReview:     "Review",
	RoleSupplier:   "Supplier",
}

// FromCode parses the upstream's numeric role code string ("5" -> RoleSupplier).
// Returns RoleUnknown for anything outside 1..5.
func FromCode(code string) Role {
	n, err := strconv.Atoi(code)
	if err != nil {
		return RoleUnknown
	}
	role := Role(n)
	if !role.Valid() {
		return RoleUnknown
	}
	return role
}

// FromTag parses a role tag string ("supplier" -> RoleSupplier).
// Returns RoleUnknown for unrecognized tags.
func FromTag(tag string) Role {
	for role, t := range roleTags {
		if t == tag {
			return role
		}
	}
	return RoleUnknown
}

// Valid reports whether the role is one of the five platform roles.
func (r Role) Valid() bool {
	return r >= RoleSuperAdmin && r <= RoleSupplier
}

// Code returns the numeric wire representation ("1".."5", or "" when unknown).
func (r Role) Code() string {
	if !r.Valid() {
		return ""
	}
	return strconv.Itoa(int(r))
}

// Tag returns the path-building tag string for the role.
func (r Role) Tag() string {
	return roleTags[r]
}

// Label returns the human-readable display name for the role.
func (r Role) Label() string {
	if !r.Valid() {
		return "Unknown"
	}
	return roleLabels[r]
}

// All returns every valid platform role in code order.
func All() []Role {
	return []Role{RoleSuperAdmin, RolePurchasing, RolePresdir, RoleReview, RoleSupplier}
}
