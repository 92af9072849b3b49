package dto

import (
	"strings"
	"testing"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestNormalizePhone(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		region   string
		expected string
		wantErr  bool
	}{
		{name: "national format", raw: "(650) 253-0000", region: "US", expected: "+16502530000"},
		{name: "already e164", raw: "+16502530000", region: "", expected: "+16502530000"},
		{name: "surrounding space", raw: "  650 253 0000 ", region: "US", expected: "+16502530000"},
		{name: "empty stays empty", raw: "  ", region: "US", expected: ""},
		{name: "too short", raw: "12", region: "US", wantErr: true},
		{name: "not a number", raw: "call me", region: "US", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.raw, tc.region)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestUpdateProfileRequest_ToUpdate(t *testing.T) {
	req := UpdateProfileRequest{
		Name:        ptr("  Sarah Wilson "),
		ContactInfo: &ContactInfoRequest{Phone: ptr("650-253-0000"), Location: ptr(" Novi Sad ")},
		Skills:      []string{" React", "TypeScript "},
		Strengths:   []string{},
	}

	update, err := req.ToUpdate("US")
	require.NoError(t, err)

	assert.Equal(t, "Sarah Wilson", *update.Name)
	assert.Nil(t, update.AvatarURL)
	require.NotNil(t, update.ContactInfo)
	assert.Equal(t, "+16502530000", *update.ContactInfo.Phone)
	assert.Equal(t, "Novi Sad", *update.ContactInfo.Location)
	assert.Equal(t, []string{"React", "TypeScript"}, update.Skills)
	// an empty list clears, a missing one keeps
	assert.NotNil(t, update.Strengths)
	assert.Empty(t, update.Strengths)
}

func TestUpdateProfileRequest_ToUpdate_OmittedFieldsStayNil(t *testing.T) {
	update, err := UpdateProfileRequest{AvatarURL: ptr("https://cdn.aiden.ai/a.png")}.ToUpdate("US")
	require.NoError(t, err)

	assert.Equal(t, models.ProfileUpdate{AvatarURL: ptr("https://cdn.aiden.ai/a.png")}, update)
}

func TestUpdateProfileRequest_Validate(t *testing.T) {
	testCases := []struct {
		name  string
		req   UpdateProfileRequest
		field string
	}{
		{name: "blank name", req: UpdateProfileRequest{Name: ptr("  ")}, field: "name"},
		{name: "long name", req: UpdateProfileRequest{Name: ptr(strings.Repeat("a", 201))}, field: "name"},
		{name: "bad avatar", req: UpdateProfileRequest{AvatarURL: ptr("not a url")}, field: "avatar_url"},
		{name: "empty skill", req: UpdateProfileRequest{Skills: []string{"Figma", ""}}, field: "skills"},
		{name: "long strength", req: UpdateProfileRequest{Strengths: []string{strings.Repeat("x", 101)}}, field: "strengths"},
		{name: "too many skills", req: UpdateProfileRequest{Skills: make([]string, 51)}, field: "skills"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestUpdateProfileRequest_Validate_LongLocation(t *testing.T) {
	req := UpdateProfileRequest{ContactInfo: &ContactInfoRequest{Location: ptr(strings.Repeat("l", 201))}}

	err := req.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "location")
}

func TestNewUserResponse_ListsNeverNull(t *testing.T) {
	resp := NewUserResponse(&models.User{Email: "john.doe@aiden.ai", Role: models.RoleEmployee})

	assert.Equal(t, []string{}, resp.Skills)
	assert.Equal(t, []string{}, resp.Strengths)
	assert.Equal(t, "employee", resp.Role)
}
