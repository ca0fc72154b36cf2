package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind names a quota-gated resource.
type ResourceKind string

const (
	KindUsers    ResourceKind = "users"
	KindContacts ResourceKind = "contacts"
	KindDeals    ResourceKind = "deals"
	KindStorage  ResourceKind = "storage"
)

// QuotaUnlimited marks a ceiling that always passes the creation gate.
const QuotaUnlimited int64 = -1

// WorkspaceQuota is 1:1 with a workspace. current > max is a legal state
// after a downgrade: it blocks further creation but is never corrected by
// deleting data.
type WorkspaceQuota struct {
	WorkspaceID      uuid.UUID `json:"workspace_id"`
	MaxUsers         int64     `json:"max_users"`
	CurrentUsers     int64     `json:"current_users"`
	MaxContacts      int64     `json:"max_contacts"`
	CurrentContacts  int64     `json:"current_contacts"`
	MaxDeals         int64     `json:"max_deals"`
	CurrentDeals     int64     `json:"current_deals"`
	MaxStorageMB     int64     `json:"max_storage_mb"`
	CurrentStorageMB int64     `json:"current_storage_mb"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// QuotaLimits is a full set of ceilings, as assigned by a tier.
type QuotaLimits struct {
	Users     int64 `json:"users"`
	Contacts  int64 `json:"contacts"`
	Deals     int64 `json:"deals"`
	StorageMB int64 `json:"storage_mb"`
}

// QuotaUpdate is a partial ceilings update; nil fields are left untouched.
type QuotaUpdate struct {
	Users     *int64 `json:"users,omitempty"`
	Contacts  *int64 `json:"contacts,omitempty"`
	Deals     *int64 `json:"deals,omitempty"`
	StorageMB *int64 `json:"storage_mb,omitempty"`
}

// Update converts a full limit set into a partial update touching every field.
func (l QuotaLimits) Update() QuotaUpdate {
	users, contacts, deals, storage := l.Users, l.Contacts, l.Deals, l.StorageMB
	return QuotaUpdate{Users: &users, Contacts: &contacts, Deals: &deals, StorageMB: &storage}
}

// TierLimits maps each tier to its default ceilings. Maxima are rewritten
// from this table only by the subscription lifecycle on tier changes.
var TierLimits = map[Tier]QuotaLimits{
	TierFree:       {Users: 2, Contacts: 100, Deals: 50, StorageMB: 500},
	TierStarter:    {Users: 5, Contacts: 1000, Deals: 500, StorageMB: 5120},
	TierPro:        {Users: 25, Contacts: 10000, Deals: 5000, StorageMB: 51200},
	TierEnterprise: {Users: QuotaUnlimited, Contacts: QuotaUnlimited, Deals: QuotaUnlimited, StorageMB: QuotaUnlimited},
}
