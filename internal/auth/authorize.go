package auth

import (
	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/models"
)

// Authorize decides whether the caller may act, from claims alone.
//
// Access is granted when the caller is an Admin, owns the resource
// (ownerID matches the claimed user ID), or holds one of the required
// roles. Pass an empty ownerID for purely role-gated operations and no
// roles for owner-only ones. Returns a Forbidden error on denial.
func Authorize(claims *Claims, ownerID string, roles ...models.Role) error {
	if claims == nil {
		return apperr.Unauthenticated("missing credentials")
	}
	if claims.Role == models.RoleAdmin {
		return nil
	}
	if ownerID != "" && claims.UserID == ownerID {
		return nil
	}
	for _, role := range roles {
		if claims.Role == role {
			return nil
		}
	}
	return apperr.Forbidden("not authorized to perform this operation")
}
