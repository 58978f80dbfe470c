package constants

import (
	"strings"

	"taskflow-backend/internal/pkg/apperr"
)

const (
	Admin    = "admin"
	TeamLead = "team_lead"
	Member   = "member"
)

// ValidRoles is the set of allowed membership role enum values.
var ValidRoles = []string{Admin, TeamLead, Member}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRole canonicalizes free-text role input to an enum value.
// Matching is case- and separator-insensitive: "Team Lead", "team-lead" and
// "team_lead" all normalize to team_lead. Unrecognized input fails validation;
// raw strings are never stored.
func NormalizeRole(input string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	if IsValidRole(key) {
		return key, nil
	}
	return "", apperr.Validation("Invalid role: must be one of admin, team_lead, member")
}
