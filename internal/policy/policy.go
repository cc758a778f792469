// Package policy makes the allow/deny decisions for every privileged
// operation. Decisions are pure functions over the resolved actor and the
// target; a nil actor is an anonymous request.
package policy

import "github.com/ludolog/ludolog/internal/models"

// CanCreateGame: power users only.
func CanCreateGame(actor *models.User) bool {
	return actor.IsPower()
}

// CanModifyUser covers update and delete of a user record: power users, or
// the user acting on their own record.
func CanModifyUser(actor *models.User, targetID int64) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RolePower || actor.ID == targetID
}

// CanSetRole: only power users may change a role. A non-power actor sending
// a role field is a validation problem (422), not a plain denial; the
// controller owns that translation.
func CanSetRole(actor *models.User) bool {
	return actor.IsPower()
}

// CanCreatePlay: power users, or the owner of the play's user scope.
func CanCreatePlay(actor *models.User, ownerID int64) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RolePower || actor.ID == ownerID
}

// PlayVisible scopes a fetched play to its owner's URL context. An existing
// play reached through the wrong user scope is denied rather than leaked.
func PlayVisible(play *models.Play, ownerID int64) bool {
	return play != nil && play.UserID == ownerID
}
