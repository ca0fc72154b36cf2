package dto

import "time"

type ChangeTierRequest struct {
	Tier string `json:"tier"`
}

type SubscriptionResponse struct {
	Tier        string         `json:"tier"`
	Status      string         `json:"status"`
	TrialEndsAt *time.Time     `json:"trial_ends_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	Addons      []string       `json:"addons,omitempty"`
	Quota       *QuotaResponse `json:"quota,omitempty"`
}

type QuotaResponse struct {
	MaxUsers         int64 `json:"max_users"`
	CurrentUsers     int64 `json:"current_users"`
	MaxContacts      int64 `json:"max_contacts"`
	CurrentContacts  int64 `json:"current_contacts"`
	MaxDeals         int64 `json:"max_deals"`
	CurrentDeals     int64 `json:"current_deals"`
	MaxStorageMB     int64 `json:"max_storage_mb"`
	CurrentStorageMB int64 `json:"current_storage_mb"`
}

// TransitionResponse is the structured result of upgrade/downgrade/cancel:
// callers always get a success flag to branch on, with downgrade warnings
// carried alongside.
type TransitionResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
