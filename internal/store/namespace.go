package store

import "github.com/dukerupert/clarus/internal/model"

// Namespace scopes storage keys to one user.
type Namespace string

// Guest is the namespace used when no user is signed in.
const Guest Namespace = "guest"

const keyPrefix = "clarus_"

// Key suffixes under a namespace.
const (
	suffixChat        = "chat"
	suffixReports     = "reports"
	suffixFamily      = "family"
	suffixMedications = "medications"
	suffixMedLogs     = "med_logs"
	suffixCareTeam    = "care_team"
	suffixNotes       = "shared_notes"
	suffixWellness    = "wellness"
	suffixInit        = "initialized"
	suffixOnboarding  = "seen_onboarding"
)

// NamespaceFor derives the namespace for the signed-in user, or Guest.
func NamespaceFor(u *model.User) Namespace {
	if u == nil || u.ID == "" {
		return Guest
	}
	return Namespace(u.ID)
}

// Prefix is the common prefix of every key in the namespace.
func (n Namespace) Prefix() string {
	return keyPrefix + string(n) + "_"
}

func (n Namespace) key(suffix string) string {
	return n.Prefix() + suffix
}
