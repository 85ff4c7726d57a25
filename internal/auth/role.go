// Package auth verifies bearer tokens and checks roles at the HTTP boundary.
package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for missing, malformed or badly signed tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrForbidden is returned when the principal lacks a required role.
	ErrForbidden = errors.New("forbidden")
)

// Role is one of the fixed user roles.
type Role string

const (
	RoleOperador     Role = "Operador"
	RoleGestor       Role = "Gestor"
	RoleVisualizador Role = "Visualizador"
)

// ParseRole validates s as a known role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOperador, RoleGestor, RoleVisualizador:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// RoleSet is a set of roles allowed to perform an operation.
type RoleSet map[Role]struct{}

// Roles builds a RoleSet.
func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Role sets used by the document routes.
var (
	Writers  = Roles(RoleOperador)
	Auditors = Roles(RoleOperador, RoleGestor)
	Everyone = Roles(RoleOperador, RoleGestor, RoleVisualizador)
)

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Role   Role
}

// HasAnyRole reports whether p holds one of required.
func HasAnyRole(p Principal, required RoleSet) bool {
	_, ok := required[p.Role]
	return ok
}
