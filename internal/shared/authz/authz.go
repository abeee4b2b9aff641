// Package authz holds the ownership decision used ahead of every mutating
// operation. It is a pure membership check: no store access, no side effects.
package authz

import "github.com/google/uuid"

// CanAct reports whether principalID is entitled to act on a resource whose
// owners are the given ids. An absent principal (uuid.Nil) is never allowed,
// and an empty owner set allows no one.
func CanAct(principalID uuid.UUID, owners ...uuid.UUID) bool {
	if principalID == uuid.Nil {
		return false
	}

	for _, owner := range owners {
		if owner != uuid.Nil && owner == principalID {
			return true
		}
	}

	return false
}
