package authstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestResolver(store ProfileStore) *ProfileResolver {
	return NewProfileResolver(store, func() time.Time { return fixedNow }, quietLogger())
}

func TestProfileResolver_Resolve(t *testing.T) {
	id := models.Identity{ID: uuid.New(), Email: "jane.doe@aiden.ai"}

	tests := []struct {
		name      string
		profile   *models.User
		err       error
		wantName  string
		wantRole  models.Role
		wantEmail string
	}{
		{
			name:      "profile with role",
			profile:   &models.User{Name: "Jane", Role: models.RoleLeadership, Email: "jane@work.ai"},
			wantName:  "Jane",
			wantRole:  models.RoleLeadership,
			wantEmail: "jane@work.ai",
		},
		{
			name:      "profile without role",
			profile:   &models.User{Name: "Jane"},
			wantName:  "Jane",
			wantRole:  models.RoleEmployee,
			wantEmail: "jane.doe@aiden.ai",
		},
		{
			name:      "profile with unknown role",
			profile:   &models.User{Role: "owner"},
			wantName:  "jane.doe",
			wantRole:  models.RoleEmployee,
			wantEmail: "jane.doe@aiden.ai",
		},
		{
			name:      "no profile row",
			err:       ErrProfileNotFound,
			wantName:  "jane.doe",
			wantRole:  models.RoleEmployee,
			wantEmail: "jane.doe@aiden.ai",
		},
		{
			name:      "store failure",
			err:       errors.New("connection refused"),
			wantName:  "jane.doe",
			wantRole:  models.RoleEmployee,
			wantEmail: "jane.doe@aiden.ai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockProfileStore)
			if tt.err != nil {
				store.On("GetProfile", mock.Anything, id.ID).Return(nil, tt.err)
			} else {
				store.On("GetProfile", mock.Anything, id.ID).Return(tt.profile, nil)
			}

			user := newTestResolver(store).Resolve(context.Background(), id)

			assert.Equal(t, id.ID, user.ID)
			assert.Equal(t, tt.wantName, user.Name)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.Equal(t, tt.wantEmail, user.Email)
			assert.NotNil(t, user.Skills)
			assert.NotNil(t, user.Strengths)
		})
	}
}

func TestProfileResolver_DoesNotAliasStoreRecord(t *testing.T) {
	id := models.Identity{ID: uuid.New(), Email: "jane@aiden.ai"}
	stored := &models.User{Name: "Jane", Role: models.RoleEmployee, Skills: []string{"Figma"}}
	store := new(mockProfileStore)
	store.On("GetProfile", mock.Anything, id.ID).Return(stored, nil)

	user := newTestResolver(store).Resolve(context.Background(), id)
	user.Skills[0] = "Sketch"

	assert.Equal(t, "Figma", stored.Skills[0])
}

func TestProfileResolver_Fallback(t *testing.T) {
	id := models.Identity{ID: uuid.New(), Email: "designer@aiden.ai"}

	user := newTestResolver(new(mockProfileStore)).Fallback(id)

	assert.Equal(t, "designer", user.Name)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.Equal(t, fixedNow, user.CreatedAt)
	assert.Equal(t, fixedNow, user.UpdatedAt)
	assert.Empty(t, user.Skills)
	assert.Nil(t, user.AvatarURL)
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "jane", LocalPart("jane@aiden.ai"))
	assert.Equal(t, "no-at-sign", LocalPart("no-at-sign"))
	assert.Equal(t, "@aiden.ai", LocalPart("@aiden.ai"))
}
