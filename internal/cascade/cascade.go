// Package cascade keeps the viewer's configuration cascade (the merged view
// of every settings-owning subject: organizations, the user, the site) in
// sync with a Srclight instance, and applies optimistic, conflict-checked
// edits to individual subjects' settings documents.
//
// Merging is always server-side: the client never layers documents locally,
// it only caches the server-computed result.
package cascade

import (
	"github.com/samber/lo"
)

// SubjectKind tags the kind of entity that owns a settings document.
type SubjectKind string

const (
	KindOrganization SubjectKind = "organization"
	KindUser         SubjectKind = "user"
	KindSite         SubjectKind = "site"
)

// Settings is one subject's stored settings document.
type Settings struct {
	// ID is the optimistic-concurrency token: edits carry it as lastID so the
	// server can reject writes against a stale revision.
	ID       int
	Contents string
}

// Subject is an entity that owns a settings document.
type Subject struct {
	Kind SubjectKind
	// ID is opaque and unique within one cascade snapshot.
	ID   string
	Name string
	// LatestSettings is nil when the subject has never saved settings.
	LatestSettings      *Settings
	SettingsURL         string
	ViewerCanAdminister bool
}

// Merged is the server-computed result of layering all subjects' documents.
type Merged struct {
	Contents string
	// Messages reports per-document merge and parse problems. A non-empty
	// Messages does not make the cascade unusable; Contents is still the best
	// merge the server could produce.
	Messages []string
}

// Cascade is one snapshot of the full set of subjects visible to the viewer
// plus their merged settings.
type Cascade struct {
	Subjects []Subject
	Merged   Merged
}

// Subject returns the subject with the given ID, if present in this snapshot.
func (c *Cascade) Subject(id string) (Subject, bool) {
	return lo.Find(c.Subjects, func(s Subject) bool { return s.ID == id })
}
