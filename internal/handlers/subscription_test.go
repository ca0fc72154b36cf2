package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/middleware"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
	"github.com/pipegrid/pipegrid-api/tests/testutil"
)

func setupSubscriptionTest(t *testing.T) (*testutil.MockSubscriptionService, *testutil.MockQuotaService, *testutil.MockMemberService, *testutil.MockSSEHub, *SubscriptionHandler) {
	t.Helper()
	mockSubscriptionService := new(testutil.MockSubscriptionService)
	mockQuotaService := new(testutil.MockQuotaService)
	mockMemberService := new(testutil.MockMemberService)
	mockHub := new(testutil.MockSSEHub)
	handler := NewSubscriptionHandler(mockSubscriptionService, mockQuotaService, mockMemberService, mockHub, authz.NewEvaluator())
	return mockSubscriptionService, mockQuotaService, mockMemberService, mockHub, handler
}

func TestSubscriptionHandler_Get_EmbedsQuota(t *testing.T) {
	mockSubscriptionService, mockQuotaService, mockMemberService, _, handler := setupSubscriptionTest(t)

	adminID := uuid.New()
	workspaceID := uuid.New()
	trialEnd := time.Now().Add(7 * 24 * time.Hour)
	sub := &models.Subscription{
		WorkspaceID: workspaceID,
		Tier:        models.TierStarter,
		Status:      models.StatusTrialing,
		TrialEndsAt: &trialEnd,
	}
	quota := &models.WorkspaceQuota{
		WorkspaceID:     workspaceID,
		MaxUsers:        5,
		CurrentUsers:    3,
		MaxContacts:     1000,
		CurrentContacts: 120,
		MaxDeals:        500,
		CurrentDeals:    40,
		MaxStorageMB:    5120,
	}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, adminID).Return(authz.RoleAdmin, nil)
	mockSubscriptionService.On("Get", mock.Anything, workspaceID).Return(sub)
	mockQuotaService.On("Get", mock.Anything, workspaceID).Return(quota, nil)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Get("/workspaces/:workspaceId/subscription", handler.Get)

	token := testutil.GenerateTestToken(t, adminID, "admin@example.com")
	req := jsonRequest(t, http.MethodGet, "/workspaces/"+workspaceID.String()+"/subscription", nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.SubscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "starter", response.Tier)
	assert.Equal(t, "trialing", response.Status)
	require.NotNil(t, response.Quota)
	assert.Equal(t, int64(1000), response.Quota.MaxContacts)
	assert.Equal(t, int64(120), response.Quota.CurrentContacts)
	mockSubscriptionService.AssertExpectations(t)
	mockQuotaService.AssertExpectations(t)
}

func TestSubscriptionHandler_Get_ManagerForbidden(t *testing.T) {
	_, _, mockMemberService, _, handler := setupSubscriptionTest(t)

	managerID := uuid.New()
	workspaceID := uuid.New()
	mockMemberService.On("GetRole", mock.Anything, workspaceID, managerID).Return(authz.RoleManager, nil)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Get("/workspaces/:workspaceId/subscription", handler.Get)

	token := testutil.GenerateTestToken(t, managerID, "manager@example.com")
	req := jsonRequest(t, http.MethodGet, "/workspaces/"+workspaceID.String()+"/subscription", nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubscriptionHandler_Upgrade_Success(t *testing.T) {
	mockSubscriptionService, _, mockMemberService, mockHub, handler := setupSubscriptionTest(t)

	adminID := uuid.New()
	workspaceID := uuid.New()
	mockMemberService.On("GetRole", mock.Anything, workspaceID, adminID).Return(authz.RoleAdmin, nil)
	mockSubscriptionService.On("Upgrade", mock.Anything, workspaceID, models.TierPro).Return(nil)
	mockHub.On("BroadcastSubscriptionChanged", workspaceID, "pro", "active").Return()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/subscription/upgrade", handler.Upgrade)

	token := testutil.GenerateTestToken(t, adminID, "admin@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/subscription/upgrade",
		dto.ChangeTierRequest{Tier: "pro"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.TransitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Empty(t, response.Warnings)
	mockSubscriptionService.AssertExpectations(t)
}

func TestSubscriptionHandler_Upgrade_InvalidTier(t *testing.T) {
	mockSubscriptionService, _, mockMemberService, _, handler := setupSubscriptionTest(t)

	adminID := uuid.New()
	workspaceID := uuid.New()
	mockMemberService.On("GetRole", mock.Anything, workspaceID, adminID).Return(authz.RoleAdmin, nil)
	mockSubscriptionService.On("Upgrade", mock.Anything, workspaceID, models.Tier("platinum")).
		Return(services.ErrInvalidTier)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/subscription/upgrade", handler.Upgrade)

	token := testutil.GenerateTestToken(t, adminID, "admin@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/subscription/upgrade",
		dto.ChangeTierRequest{Tier: "platinum"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionHandler_Downgrade_ReturnsWarnings(t *testing.T) {
	mockSubscriptionService, _, mockMemberService, mockHub, handler := setupSubscriptionTest(t)

	adminID := uuid.New()
	workspaceID := uuid.New()
	warnings := []string{"contacts usage (250) exceeds the free tier limit (100); existing data is kept but new contacts cannot be created"}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, adminID).Return(authz.RoleAdmin, nil)
	mockSubscriptionService.On("Downgrade", mock.Anything, workspaceID, models.TierFree).Return(warnings, nil)
	mockHub.On("BroadcastSubscriptionChanged", workspaceID, "free", "").Return()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/subscription/downgrade", handler.Downgrade)

	token := testutil.GenerateTestToken(t, adminID, "admin@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/subscription/downgrade",
		dto.ChangeTierRequest{Tier: "free"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.TransitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.Len(t, response.Warnings, 1)
	assert.Contains(t, response.Warnings[0], "existing data is kept")
	mockSubscriptionService.AssertExpectations(t)
}

func TestSubscriptionHandler_Cancel_NotFound(t *testing.T) {
	mockSubscriptionService, _, mockMemberService, _, handler := setupSubscriptionTest(t)

	adminID := uuid.New()
	workspaceID := uuid.New()
	mockMemberService.On("GetRole", mock.Anything, workspaceID, adminID).Return(authz.RoleAdmin, nil)
	mockSubscriptionService.On("Cancel", mock.Anything, workspaceID).Return(services.ErrSubscriptionNotFound)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/subscription/cancel", handler.Cancel)

	token := testutil.GenerateTestToken(t, adminID, "admin@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/subscription/cancel", nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockSubscriptionService.AssertExpectations(t)
}
