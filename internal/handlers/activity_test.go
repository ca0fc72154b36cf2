package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/middleware"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
	"github.com/pipegrid/pipegrid-api/tests/testutil"
)

func setupActivityTest(t *testing.T) (*testutil.MockActivityService, *testutil.MockMemberService, *ActivityHandler) {
	t.Helper()
	mockActivityService := new(testutil.MockActivityService)
	mockMemberService := new(testutil.MockMemberService)
	handler := NewActivityHandler(mockActivityService, mockMemberService)
	return mockActivityService, mockMemberService, handler
}

func TestActivityHandler_Create_Success(t *testing.T) {
	mockActivityService, mockMemberService, handler := setupActivityTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleUser}
	activity := &models.Activity{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Kind:        models.ActivityKindCall,
		Body:        "Follow-up call",
		CreatorID:   userID,
	}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleUser, nil)
	mockActivityService.On("Create", mock.Anything, principal, workspaceID,
		services.ActivityInput{Kind: models.ActivityKindCall, Body: "Follow-up call"}).Return(activity, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/activities", handler.Create)

	token := testutil.GenerateTestToken(t, userID, "user@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/activities",
		dto.CreateActivityRequest{Kind: models.ActivityKindCall, Body: "Follow-up call"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockActivityService.AssertExpectations(t)
}

func TestActivityHandler_Create_InvalidKind(t *testing.T) {
	mockActivityService, mockMemberService, handler := setupActivityTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleUser}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleUser, nil)
	mockActivityService.On("Create", mock.Anything, principal, workspaceID,
		services.ActivityInput{Kind: "reminder", Body: "x"}).Return(nil, services.ErrInvalidKind)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/activities", handler.Create)

	token := testutil.GenerateTestToken(t, userID, "user@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/activities",
		dto.CreateActivityRequest{Kind: "reminder", Body: "x"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockActivityService.AssertExpectations(t)
}

func TestActivityHandler_Update_LoggedKindReturnsRecordUnchanged(t *testing.T) {
	mockActivityService, mockMemberService, handler := setupActivityTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	activityID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleManager}
	activity := &models.Activity{
		ID:          activityID,
		WorkspaceID: workspaceID,
		Kind:        models.ActivityKindEmail,
		Body:        "Original",
		CreatorID:   userID,
	}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleManager, nil)
	mockActivityService.On("UpdateBody", mock.Anything, principal, workspaceID, activityID, "Edited").
		Return(activity, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Patch("/workspaces/:workspaceId/activities/:activityId", handler.Update)

	token := testutil.GenerateTestToken(t, userID, "manager@example.com")
	req := jsonRequest(t, http.MethodPatch,
		"/workspaces/"+workspaceID.String()+"/activities/"+activityID.String(),
		dto.UpdateActivityRequest{Body: "Edited"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockActivityService.AssertExpectations(t)
}
