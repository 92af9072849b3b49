package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/middleware"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/testutil"
	"github.com/dimitrije/aiden-dashboard/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type userTestEnv struct {
	profiles *testutil.MockProfileService
	events   *testutil.MockEventBroadcaster
	client   *testutil.HTTPTestClient
}

func setupUserTest(t *testing.T) userTestEnv {
	t.Helper()
	profiles := new(testutil.MockProfileService)
	events := new(testutil.MockEventBroadcaster)
	events.On("BroadcastProfileUpdate", mock.Anything, mock.Anything).Maybe()
	handler := NewUserHandler(profiles, "US").WithEvents(events)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	app.Get("/users/me", handler.GetMe)
	app.Patch("/users/me", handler.UpdateMe)
	app.Get("/profiles/:id", handler.GetProfile)
	app.Patch("/profiles/:id", handler.UpdateProfile)

	return userTestEnv{profiles: profiles, events: events, client: testutil.NewHTTPTestClient(t, app)}
}

func bearer(t *testing.T, id uuid.UUID, email string, role models.Role) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, id, email, role))}
}

func TestUserHandler_GetMe(t *testing.T) {
	env := setupUserTest(t)

	userID := uuid.New()
	env.profiles.On("GetProfile", mock.Anything, userID).Return(&models.User{
		ID:     userID,
		Email:  "john.doe@aiden.ai",
		Name:   "John Doe",
		Role:   models.RoleEmployee,
		Skills: []string{"Figma"},
	}, nil)

	rec := env.client.GET("/users/me", bearer(t, userID, "john.doe@aiden.ai", models.RoleEmployee))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.UserResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, userID, resp.ID)
	assert.Equal(t, "John Doe", resp.Name)
	assert.Equal(t, "employee", resp.Role)
	assert.Equal(t, []string{"Figma"}, resp.Skills)
	assert.Equal(t, []string{}, resp.Strengths)
	env.profiles.AssertExpectations(t)
}

func TestUserHandler_GetMe_FallsBackWithoutProfile(t *testing.T) {
	env := setupUserTest(t)

	userID := uuid.New()
	env.profiles.On("GetProfile", mock.Anything, userID).Return(nil, authstate.ErrProfileNotFound)

	rec := env.client.GET("/users/me", bearer(t, userID, "new.hire@aiden.ai", models.RoleEmployee))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.UserResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, userID, resp.ID)
	assert.Equal(t, "new.hire@aiden.ai", resp.Email)
	assert.Equal(t, "new.hire", resp.Name)
	assert.Equal(t, "employee", resp.Role)
	assert.Equal(t, []string{}, resp.Skills)
}

func TestUserHandler_UpdateMe(t *testing.T) {
	env := setupUserTest(t)

	userID := uuid.New()
	expected := models.ProfileUpdate{
		Name:        strPtr("John D"),
		ContactInfo: &models.ContactInfo{Phone: strPtr("+16502530000")},
		Skills:      []string{"Figma", "UX Research"},
	}
	env.profiles.On("Update", mock.Anything, userID, expected).Return(&models.User{
		ID:    userID,
		Email: "john.doe@aiden.ai",
		Name:  "John D",
		Role:  models.RoleEmployee,
	}, nil)

	rec := env.client.PATCH("/users/me", map[string]any{
		"name":         "  John D ",
		"contact_info": map[string]string{"phone": "(650) 253-0000"},
		"skills":       []string{" Figma", "UX Research "},
	}, bearer(t, userID, "john.doe@aiden.ai", models.RoleEmployee))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.UserResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, "John D", resp.Name)
	env.profiles.AssertExpectations(t)
	env.events.AssertCalled(t, "BroadcastProfileUpdate", userID, userID)
}

func TestUserHandler_UpdateMe_Rejected(t *testing.T) {
	testCases := []struct {
		name string
		body map[string]any
	}{
		{name: "invalid phone", body: map[string]any{"contact_info": map[string]string{"phone": "12"}}},
		{name: "blank name", body: map[string]any{"name": "   "}},
		{name: "empty skill", body: map[string]any{"skills": []string{"Figma", " "}}},
		{name: "bad avatar url", body: map[string]any{"avatar_url": "not a url"}},
		{name: "no fields", body: map[string]any{}},
		{name: "role is not writable", body: map[string]any{"role": "super_admin"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupUserTest(t)
			userID := uuid.New()

			rec := env.client.PATCH("/users/me", tc.body, bearer(t, userID, "john.doe@aiden.ai", models.RoleEmployee))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env.profiles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUserHandler_UpdateMe_UnknownUser(t *testing.T) {
	env := setupUserTest(t)

	userID := uuid.New()
	env.profiles.On("Update", mock.Anything, userID, mock.Anything).Return(nil, authstate.ErrProfileNotFound)

	rec := env.client.PATCH("/users/me", map[string]any{"name": "Ghost"},
		bearer(t, userID, "ghost@aiden.ai", models.RoleEmployee))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env.events.AssertNotCalled(t, "BroadcastProfileUpdate", mock.Anything, mock.Anything)
}

func TestUserHandler_GetProfile_Permissions(t *testing.T) {
	testCases := []struct {
		name     string
		role     models.Role
		self     bool
		expected int
	}{
		{name: "employee reads self", role: models.RoleEmployee, self: true, expected: http.StatusOK},
		{name: "employee reads other", role: models.RoleEmployee, expected: http.StatusForbidden},
		{name: "leadership reads other", role: models.RoleLeadership, expected: http.StatusOK},
		{name: "super admin reads other", role: models.RoleSuperAdmin, expected: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupUserTest(t)

			callerID := uuid.New()
			targetID := uuid.New()
			if tc.self {
				targetID = callerID
			}
			env.profiles.On("GetProfile", mock.Anything, targetID).
				Return(&models.User{ID: targetID, Email: "x@aiden.ai", Name: "X", Role: models.RoleEmployee}, nil).
				Maybe()

			rec := env.client.GET("/profiles/"+targetID.String(), bearer(t, callerID, "caller@aiden.ai", tc.role))

			assert.Equal(t, tc.expected, rec.Code)
			if tc.expected == http.StatusForbidden {
				env.profiles.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUserHandler_GetProfile_NotFound(t *testing.T) {
	env := setupUserTest(t)

	userID := uuid.New()
	env.profiles.On("GetProfile", mock.Anything, userID).Return(nil, authstate.ErrProfileNotFound)

	rec := env.client.GET("/profiles/"+userID.String(), bearer(t, userID, "john.doe@aiden.ai", models.RoleEmployee))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandler_GetProfile_StoreError(t *testing.T) {
	env := setupUserTest(t)

	userID := uuid.New()
	env.profiles.On("GetProfile", mock.Anything, userID).Return(nil, errors.New("db down"))

	rec := env.client.GET("/profiles/"+userID.String(), bearer(t, userID, "john.doe@aiden.ai", models.RoleEmployee))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestUserHandler_GetProfile_InvalidID(t *testing.T) {
	env := setupUserTest(t)

	rec := env.client.GET("/profiles/not-a-uuid", bearer(t, uuid.New(), "john.doe@aiden.ai", models.RoleSuperAdmin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_UpdateProfile_Permissions(t *testing.T) {
	testCases := []struct {
		name     string
		role     models.Role
		self     bool
		expected int
	}{
		{name: "employee updates self", role: models.RoleEmployee, self: true, expected: http.StatusOK},
		{name: "leadership updates other", role: models.RoleLeadership, expected: http.StatusForbidden},
		{name: "super admin updates other", role: models.RoleSuperAdmin, expected: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupUserTest(t)

			callerID := uuid.New()
			targetID := uuid.New()
			if tc.self {
				targetID = callerID
			}
			env.profiles.On("Update", mock.Anything, targetID, models.ProfileUpdate{Name: strPtr("Renamed")}).
				Return(&models.User{ID: targetID, Email: "x@aiden.ai", Name: "Renamed", Role: models.RoleEmployee}, nil).
				Maybe()

			rec := env.client.PATCH("/profiles/"+targetID.String(), map[string]any{"name": "Renamed"},
				bearer(t, callerID, "caller@aiden.ai", tc.role))

			assert.Equal(t, tc.expected, rec.Code)
			if tc.expected == http.StatusOK {
				env.events.AssertCalled(t, "BroadcastProfileUpdate", targetID, callerID)
			} else {
				env.events.AssertNotCalled(t, "BroadcastProfileUpdate", mock.Anything, mock.Anything)
			}
		})
	}
}
