package domain

import "time"

// Entity is implemented by *Media and *Character.
type Entity interface {
	CompositeID() CompositeID
	EntityKind() EntityKind
	PopularityScore() int
	DisplayNames() []string
}

// PackKind distinguishes the built-in catalog from community packs.
type PackKind string

// Pack kinds.
const (
	PackKindBuiltin   PackKind = "builtin"
	PackKindCommunity PackKind = "community"
)

// PackInstall records that a tenant enabled a community pack.
type PackInstall struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PackID      string    `json:"pack_id"`
	Seq         uint64    `json:"seq"`
	InstalledAt time.Time `json:"installed_at"`
	InstalledBy string    `json:"installed_by,omitempty"`
}

// TenantState is the persisted configuration of one tenant: installs in Seq order and its manual disables.
type TenantState struct {
	TenantID string        `json:"tenant_id"`
	Installs []PackInstall `json:"installs"`
	Disabled []CompositeID `json:"disabled"`
}
