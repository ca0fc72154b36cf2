package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/internal/sse"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Sync(ctx context.Context, id uuid.UUID, email, name string, avatarURL *string) (*models.User, error) {
	args := m.Called(ctx, id, email, name, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockWorkspaceService mocks the WorkspaceService
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) Create(ctx context.Context, name, slug string, ownerID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, name, slug, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []authz.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]models.Workspace), args.Get(1).([]authz.Role), args.Error(2)
}

func (m *MockWorkspaceService) UpdateSettings(ctx context.Context, workspaceID uuid.UUID, name *string, mode *authz.VisibilityMode) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID, name, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) SoftDelete(ctx context.Context, workspaceID uuid.UUID) error {
	args := m.Called(ctx, workspaceID)
	return args.Error(0)
}

// MockMemberService mocks the MemberService
type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (authz.Role, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(authz.Role), args.Error(1)
}

func (m *MockMemberService) List(ctx context.Context, actor authz.Principal, workspaceID uuid.UUID) ([]models.Membership, error) {
	args := m.Called(ctx, actor, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Membership), args.Error(1)
}

func (m *MockMemberService) Add(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, role authz.Role) (*models.Membership, error) {
	args := m.Called(ctx, actor, workspaceID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockMemberService) ChangeRole(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, newRole authz.Role) error {
	args := m.Called(ctx, actor, workspaceID, userID, newRole)
	return args.Error(0)
}

func (m *MockMemberService) Remove(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID) error {
	args := m.Called(ctx, actor, workspaceID, userID)
	return args.Error(0)
}

func (m *MockMemberService) SetStatus(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, status string) error {
	args := m.Called(ctx, actor, workspaceID, userID, status)
	return args.Error(0)
}

// MockContactService mocks the ContactService
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input services.ContactInput) (*models.Contact, error) {
	args := m.Called(ctx, principal, workspaceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactService) List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Contact, error) {
	args := m.Called(ctx, principal, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contact), args.Error(1)
}

func (m *MockContactService) GetByID(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) (*models.Contact, error) {
	args := m.Called(ctx, principal, workspaceID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactService) Update(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID, input services.ContactInput) (*models.Contact, error) {
	args := m.Called(ctx, principal, workspaceID, contactID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactService) SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) error {
	args := m.Called(ctx, principal, workspaceID, contactID)
	return args.Error(0)
}

func (m *MockContactService) Restore(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) (*models.Contact, error) {
	args := m.Called(ctx, principal, workspaceID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// MockDealService mocks the DealService
type MockDealService struct {
	mock.Mock
}

func (m *MockDealService) Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input services.DealInput) (*models.Deal, error) {
	args := m.Called(ctx, principal, workspaceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealService) List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Deal, error) {
	args := m.Called(ctx, principal, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deal), args.Error(1)
}

func (m *MockDealService) GetByID(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) (*models.Deal, error) {
	args := m.Called(ctx, principal, workspaceID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealService) Update(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID, input services.DealInput) (*models.Deal, error) {
	args := m.Called(ctx, principal, workspaceID, dealID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealService) SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) error {
	args := m.Called(ctx, principal, workspaceID, dealID)
	return args.Error(0)
}

func (m *MockDealService) Restore(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) (*models.Deal, error) {
	args := m.Called(ctx, principal, workspaceID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

// MockActivityService mocks the ActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input services.ActivityInput) (*models.Activity, error) {
	args := m.Called(ctx, principal, workspaceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Activity, error) {
	args := m.Called(ctx, principal, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Activity), args.Error(1)
}

func (m *MockActivityService) GetByID(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID) (*models.Activity, error) {
	args := m.Called(ctx, principal, workspaceID, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) UpdateBody(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID, body string) (*models.Activity, error) {
	args := m.Called(ctx, principal, workspaceID, activityID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID) error {
	args := m.Called(ctx, principal, workspaceID, activityID)
	return args.Error(0)
}

// MockSubscriptionService mocks the SubscriptionService
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Get(ctx context.Context, workspaceID uuid.UUID) *models.Subscription {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Subscription)
}

func (m *MockSubscriptionService) Upgrade(ctx context.Context, workspaceID uuid.UUID, newTier models.Tier) error {
	args := m.Called(ctx, workspaceID, newTier)
	return args.Error(0)
}

func (m *MockSubscriptionService) Downgrade(ctx context.Context, workspaceID uuid.UUID, newTier models.Tier) ([]string, error) {
	args := m.Called(ctx, workspaceID, newTier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSubscriptionService) Cancel(ctx context.Context, workspaceID uuid.UUID) error {
	args := m.Called(ctx, workspaceID)
	return args.Error(0)
}

// MockQuotaService mocks the QuotaService
type MockQuotaService struct {
	mock.Mock
}

func (m *MockQuotaService) Get(ctx context.Context, workspaceID uuid.UUID) (*models.WorkspaceQuota, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceQuota), args.Error(1)
}

// MockBillingService mocks the BillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) HandleWebhook(ctx context.Context, providerName string, payload []byte, signature string) error {
	args := m.Called(ctx, providerName, payload, signature)
	return args.Error(0)
}

// MockSSEHub mocks the SSE hub used by handlers
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) SubscribeToWorkspace(clientID string, workspaceID uuid.UUID) {
	m.Called(clientID, workspaceID)
}

func (m *MockSSEHub) UnsubscribeFromWorkspace(clientID string, workspaceID uuid.UUID) {
	m.Called(clientID, workspaceID)
}

func (m *MockSSEHub) BroadcastMemberJoined(workspaceID, userID uuid.UUID, role string) {
	m.Called(workspaceID, userID, role)
}

func (m *MockSSEHub) BroadcastMemberLeft(workspaceID, userID uuid.UUID) {
	m.Called(workspaceID, userID)
}

func (m *MockSSEHub) BroadcastRoleChanged(workspaceID, userID uuid.UUID, role string) {
	m.Called(workspaceID, userID, role)
}

func (m *MockSSEHub) BroadcastSubscriptionChanged(workspaceID uuid.UUID, tier, status string) {
	m.Called(workspaceID, tier, status)
}
