// Package drops implements the Drop Registry (spec.md §4.C): drop
// resolution, lifecycle, and the broadcast.Resolver adapter the
// WebSocket hub uses to authorize subscriptions without importing
// internal/auth or internal/rowstore directly.
package drops

import (
	"regexp"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/broadcast"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// pruner is the subset of *retention.Pruner the registry needs, kept
// as an interface so this package doesn't import internal/retention
// (which would otherwise be the only cross-dependency between the two).
type pruner interface {
	PruneDrop(dropID string) error
}

// Registry wraps the Row Store's Drop methods with the resolution and
// lifecycle rules spec.md §4.C names.
type Registry struct {
	db     *rowstore.Database
	pruner pruner
}

func NewRegistry(db *rowstore.Database) *Registry {
	return &Registry{db: db}
}

// SetPruner wires the background pruner so SetRetentionDays can trigger
// its one immediate re-run (spec.md §4.G: "A retention change is
// followed by one immediate invocation against that Drop").
func (r *Registry) SetPruner(p pruner) {
	r.pruner = p
}

var allDigits = regexp.MustCompile(`^[0-9]+$`)

// ResolveDrop implements spec.md §4.C's resolveDrop:
//   - empty input resolves to the default Drop
//   - all-digits input is an id lookup; missing falls back to default
//     when allowCreate, otherwise NotFound
//   - anything else is a name lookup; missing creates it when
//     allowCreate (non-admins are never granted allowCreate)
func (r *Registry) ResolveDrop(nameOrID string, allowCreate bool) (string, error) {
	if nameOrID == "" {
		def, err := r.db.DropByName(rowstore.DefaultDropName)
		if err != nil {
			return "", err
		}
		if def == nil {
			return "", apperr.NotFound("default drop")
		}
		return def.ID, nil
	}

	if allDigits.MatchString(nameOrID) {
		drop, err := r.db.DropByID(nameOrID)
		if err != nil {
			return "", err
		}
		if drop != nil {
			return drop.ID, nil
		}
		if allowCreate {
			def, err := r.db.DropByName(rowstore.DefaultDropName)
			if err != nil {
				return "", err
			}
			if def == nil {
				return "", apperr.NotFound("default drop")
			}
			return def.ID, nil
		}
		return "", apperr.NotFound("drop")
	}

	drop, err := r.db.DropByName(nameOrID)
	if err != nil {
		return "", err
	}
	if drop != nil {
		return drop.ID, nil
	}
	if !allowCreate {
		return "", apperr.NotFound("drop")
	}
	created, err := r.db.CreateDrop(nameOrID, "")
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// DefaultDropID implements broadcast.Resolver.
func (r *Registry) DefaultDropID() string {
	def, err := r.db.DropByName(rowstore.DefaultDropName)
	if err != nil || def == nil {
		return ""
	}
	return def.ID
}

// CanQuery implements broadcast.Resolver: admins and disabled-auth
// sockets pass unconditionally, members need can_query on the Drop.
func (r *Registry) CanQuery(sess *broadcast.Session, dropID string) bool {
	if sess == nil {
		return true
	}
	if sess.Role == rowstore.RoleAdmin {
		return true
	}
	perm, err := r.db.UserDropPermissionFor(sess.UserID, dropID)
	if err != nil || perm == nil {
		return false
	}
	return perm.CanQuery
}

// List returns the Drops visible to ctx: admins see all, members see
// only Drops they hold any permission on (spec.md §4.C).
func (r *Registry) List(ctx *auth.AuthContext) ([]*rowstore.Drop, error) {
	if ctx.Kind == auth.KindDisabled || ctx.IsAdmin() {
		return r.db.ListDrops()
	}
	if ctx.Kind == auth.KindSession {
		return r.db.ListDropsForUser(ctx.UserID)
	}
	return nil, apperr.Forbidden("cannot list drops")
}

// Create is admin-only when auth is enabled (spec.md §4.C).
func (r *Registry) Create(ctx *auth.AuthContext, name, label string) (*rowstore.Drop, error) {
	if ctx.Kind != auth.KindDisabled && !ctx.IsAdmin() {
		return nil, apperr.Forbidden("admin role required")
	}
	return r.db.CreateDrop(name, label)
}

// daysToMS converts a retention window expressed in days to
// milliseconds; 0 means disabled.
func daysToMS(days int64) *int64 {
	if days <= 0 {
		return nil
	}
	ms := days * 24 * 60 * 60 * 1000
	return &ms
}

// SetRetentionDays applies spec.md §4.C's days→ms conversion, then
// immediately re-runs the pruner against this Drop if one is wired.
func (r *Registry) SetRetentionDays(dropID string, tracesDays, eventsDays int64) error {
	if err := r.db.SetDropRetention(dropID, daysToMS(tracesDays), daysToMS(eventsDays)); err != nil {
		return err
	}
	if r.pruner != nil {
		return r.pruner.PruneDrop(dropID)
	}
	return nil
}

// Delete forbids deleting the default Drop or the last remaining Drop
// (spec.md §4.C).
func (r *Registry) Delete(dropID string) error {
	drop, err := r.db.DropByID(dropID)
	if err != nil {
		return err
	}
	if drop == nil {
		return apperr.NotFound("drop")
	}
	if drop.Name == rowstore.DefaultDropName {
		return apperr.Forbidden("the default drop cannot be deleted")
	}
	count, err := r.db.CountDrops()
	if err != nil {
		return err
	}
	if count <= 1 {
		return apperr.Forbidden("the last remaining drop cannot be deleted")
	}
	return r.db.DeleteDrop(dropID)
}
