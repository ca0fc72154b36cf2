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

func setupContactTest(t *testing.T) (*testutil.MockContactService, *testutil.MockMemberService, *ContactHandler) {
	t.Helper()
	mockContactService := new(testutil.MockContactService)
	mockMemberService := new(testutil.MockMemberService)
	handler := NewContactHandler(mockContactService, mockMemberService)
	return mockContactService, mockMemberService, handler
}

func TestContactHandler_Create_Success(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleUser}
	contact := &models.Contact{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        "Jane Cooper",
		CreatorID:   userID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleUser, nil)
	mockContactService.On("Create", mock.Anything, principal, workspaceID,
		services.ContactInput{Name: "Jane Cooper"}).Return(contact, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/contacts", handler.Create)

	token := testutil.GenerateTestToken(t, userID, "user@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/contacts",
		dto.ContactRequest{Name: "Jane Cooper"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, contact.ID, response.ID)
	mockContactService.AssertExpectations(t)
}

func TestContactHandler_Create_QuotaExceeded(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleUser}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleUser, nil)
	mockContactService.On("Create", mock.Anything, principal, workspaceID,
		services.ContactInput{Name: "One Too Many"}).Return(nil, services.ErrQuotaExceeded)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/contacts", handler.Create)

	token := testutil.GenerateTestToken(t, userID, "user@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/contacts",
		dto.ContactRequest{Name: "One Too Many"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	mockContactService.AssertExpectations(t)
}

func TestContactHandler_Create_GuestForbidden(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleGuest}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleGuest, nil)
	mockContactService.On("Create", mock.Anything, principal, workspaceID,
		services.ContactInput{Name: "Jane Cooper"}).Return(nil, services.ErrForbidden)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/contacts", handler.Create)

	token := testutil.GenerateTestToken(t, userID, "guest@example.com")
	req := jsonRequest(t, http.MethodPost, "/workspaces/"+workspaceID.String()+"/contacts",
		dto.ContactRequest{Name: "Jane Cooper"}, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestContactHandler_List(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleManager}
	contacts := []models.Contact{
		{ID: uuid.New(), WorkspaceID: workspaceID, Name: "Jane Cooper", CreatorID: uuid.New()},
		{ID: uuid.New(), WorkspaceID: workspaceID, Name: "Wade Warren", CreatorID: uuid.New()},
	}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleManager, nil)
	mockContactService.On("List", mock.Anything, principal, workspaceID).Return(contacts, nil)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Get("/workspaces/:workspaceId/contacts", handler.List)

	token := testutil.GenerateTestToken(t, userID, "manager@example.com")
	req := jsonRequest(t, http.MethodGet, "/workspaces/"+workspaceID.String()+"/contacts", nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	mockContactService.AssertExpectations(t)
}

func TestContactHandler_Get_NotFound(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	contactID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleUser}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleUser, nil)
	mockContactService.On("GetByID", mock.Anything, principal, workspaceID, contactID).
		Return(nil, services.ErrContactNotFound)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Get("/workspaces/:workspaceId/contacts/:contactId", handler.Get)

	token := testutil.GenerateTestToken(t, userID, "user@example.com")
	req := jsonRequest(t, http.MethodGet,
		"/workspaces/"+workspaceID.String()+"/contacts/"+contactID.String(), nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockContactService.AssertExpectations(t)
}

func TestContactHandler_Delete_Success(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	contactID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleManager}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleManager, nil)
	mockContactService.On("SoftDelete", mock.Anything, principal, workspaceID, contactID).Return(nil)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Delete("/workspaces/:workspaceId/contacts/:contactId", handler.Delete)

	token := testutil.GenerateTestToken(t, userID, "manager@example.com")
	req := jsonRequest(t, http.MethodDelete,
		"/workspaces/"+workspaceID.String()+"/contacts/"+contactID.String(), nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockContactService.AssertExpectations(t)
}

func TestContactHandler_Restore_Success(t *testing.T) {
	mockContactService, mockMemberService, handler := setupContactTest(t)

	userID := uuid.New()
	workspaceID := uuid.New()
	contactID := uuid.New()
	principal := authz.Principal{ID: userID, Role: authz.RoleManager}
	contact := &models.Contact{ID: contactID, WorkspaceID: workspaceID, Name: "Jane Cooper", CreatorID: userID}
	mockMemberService.On("GetRole", mock.Anything, workspaceID, userID).Return(authz.RoleManager, nil)
	mockContactService.On("Restore", mock.Anything, principal, workspaceID, contactID).Return(contact, nil)

	app := drift.New()
	app.Use(middleware.Auth(testutil.TestIdentityService()))
	app.Post("/workspaces/:workspaceId/contacts/:contactId/restore", handler.Restore)

	token := testutil.GenerateTestToken(t, userID, "manager@example.com")
	req := jsonRequest(t, http.MethodPost,
		"/workspaces/"+workspaceID.String()+"/contacts/"+contactID.String()+"/restore", nil, token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockContactService.AssertExpectations(t)
}
