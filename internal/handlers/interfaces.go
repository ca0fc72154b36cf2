package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/internal/sse"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Sync(ctx context.Context, id uuid.UUID, email, name string, avatarURL *string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WorkspaceServiceInterface defines the methods used by handlers from WorkspaceService
type WorkspaceServiceInterface interface {
	Create(ctx context.Context, name, slug string, ownerID uuid.UUID) (*models.Workspace, error)
	GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error)
	GetBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []authz.Role, error)
	UpdateSettings(ctx context.Context, workspaceID uuid.UUID, name *string, mode *authz.VisibilityMode) (*models.Workspace, error)
	SoftDelete(ctx context.Context, workspaceID uuid.UUID) error
}

// MemberServiceInterface defines the methods used by handlers from MemberService
type MemberServiceInterface interface {
	GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (authz.Role, error)
	List(ctx context.Context, actor authz.Principal, workspaceID uuid.UUID) ([]models.Membership, error)
	Add(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, role authz.Role) (*models.Membership, error)
	ChangeRole(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, newRole authz.Role) error
	Remove(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID) error
	SetStatus(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, status string) error
}

// ContactServiceInterface defines the methods used by handlers from ContactService
type ContactServiceInterface interface {
	Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input services.ContactInput) (*models.Contact, error)
	List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Contact, error)
	GetByID(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) (*models.Contact, error)
	Update(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID, input services.ContactInput) (*models.Contact, error)
	SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) error
	Restore(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) (*models.Contact, error)
}

// DealServiceInterface defines the methods used by handlers from DealService
type DealServiceInterface interface {
	Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input services.DealInput) (*models.Deal, error)
	List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Deal, error)
	GetByID(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) (*models.Deal, error)
	Update(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID, input services.DealInput) (*models.Deal, error)
	SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) error
	Restore(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) (*models.Deal, error)
}

// ActivityServiceInterface defines the methods used by handlers from ActivityService
type ActivityServiceInterface interface {
	Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input services.ActivityInput) (*models.Activity, error)
	List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Activity, error)
	GetByID(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID) (*models.Activity, error)
	UpdateBody(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID, body string) (*models.Activity, error)
	SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID) error
}

// SubscriptionServiceInterface defines the methods used by handlers from SubscriptionService
type SubscriptionServiceInterface interface {
	Get(ctx context.Context, workspaceID uuid.UUID) *models.Subscription
	Upgrade(ctx context.Context, workspaceID uuid.UUID, newTier models.Tier) error
	Downgrade(ctx context.Context, workspaceID uuid.UUID, newTier models.Tier) ([]string, error)
	Cancel(ctx context.Context, workspaceID uuid.UUID) error
}

// QuotaServiceInterface defines the methods used by handlers from QuotaService
type QuotaServiceInterface interface {
	Get(ctx context.Context, workspaceID uuid.UUID) (*models.WorkspaceQuota, error)
}

// BillingServiceInterface defines the methods used by handlers from BillingService
type BillingServiceInterface interface {
	HandleWebhook(ctx context.Context, providerName string, payload []byte, signature string) error
}

// SSEHubInterface defines the methods used by handlers from the SSE hub
type SSEHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	SubscribeToWorkspace(clientID string, workspaceID uuid.UUID)
	UnsubscribeFromWorkspace(clientID string, workspaceID uuid.UUID)
	BroadcastMemberJoined(workspaceID, userID uuid.UUID, role string)
	BroadcastMemberLeft(workspaceID, userID uuid.UUID)
	BroadcastRoleChanged(workspaceID, userID uuid.UUID, role string)
	BroadcastSubscriptionChanged(workspaceID uuid.UUID, tier, status string)
}
