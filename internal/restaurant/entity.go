// AngelaMos | 2026
// entity.go

package restaurant

import (
	"time"
)

type Restaurant struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"name"`
	Domain    *string   `db:"domain"`
	Slug      *string   `db:"slug"`
	CreatedAt time.Time `db:"created_at"`
}

// DomainOrSlug returns the public domain, falling back to the slug when no
// custom domain is configured.
func (r *Restaurant) DomainOrSlug() string {
	if r.Domain != nil && *r.Domain != "" {
		return *r.Domain
	}
	if r.Slug != nil {
		return *r.Slug
	}
	return ""
}
