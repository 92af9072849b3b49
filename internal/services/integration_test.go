package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"github.com/dimitrije/aiden-dashboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIntegration_SeedDemoAndAuthenticate(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()

	credentials := services.NewCredentialService(tdb.DB, bcrypt.MinCost)
	profiles := services.NewProfileService(tdb.DB)

	hash, err := credentials.HashPassword("demo123")
	require.NoError(t, err)
	require.NoError(t, tdb.DB.SeedDemo(ctx, hash))
	// seeding is idempotent
	require.NoError(t, tdb.DB.SeedDemo(ctx, hash))

	identity, err := credentials.Authenticate(ctx, " ADMIN@aiden.ai ", "demo123")
	require.NoError(t, err)
	assert.Equal(t, database.SeedID("user:admin@aiden.ai"), identity.ID)

	role, err := profiles.RoleOf(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, role)

	_, err = credentials.Authenticate(ctx, "admin@aiden.ai", "wrong")
	assert.ErrorIs(t, err, authstate.ErrInvalidCredentials)
	_, err = credentials.Authenticate(ctx, "nobody@aiden.ai", "demo123")
	assert.ErrorIs(t, err, authstate.ErrInvalidCredentials)
}

func TestIntegration_ProfileLifecycle(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	fixtures := testutil.NewFixtures(tdb.DB)
	profiles := services.NewProfileService(tdb.DB)

	identity := fixtures.CreateAccount(t, testutil.WithEmail("new.hire@aiden.ai"))

	_, err := profiles.GetProfile(ctx, identity.ID)
	assert.ErrorIs(t, err, authstate.ErrProfileNotFound)

	role, err := profiles.RoleOf(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, role)

	name, phone := "New Hire", "+16502530000"
	user, err := profiles.Update(ctx, identity.ID, models.ProfileUpdate{
		Name:        &name,
		ContactInfo: &models.ContactInfo{Phone: &phone},
		Skills:      []string{"Figma"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Hire", user.Name)
	assert.Equal(t, models.Role(""), user.Role)
	require.NotNil(t, user.ContactInfo)
	assert.Equal(t, phone, *user.ContactInfo.Phone)
	assert.Equal(t, []string{"Figma"}, user.Skills)
	assert.Empty(t, user.Strengths)

	// nil fields keep the stored value
	location := "Belgrade"
	user, err = profiles.Update(ctx, identity.ID, models.ProfileUpdate{
		ContactInfo: &models.ContactInfo{Location: &location},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Hire", user.Name)
	assert.Equal(t, phone, *user.ContactInfo.Phone)
	assert.Equal(t, location, *user.ContactInfo.Location)

	id, err := profiles.SetRole(ctx, "NEW.HIRE@aiden.ai", models.RoleLeadership)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, id)

	user, err = profiles.GetProfile(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLeadership, user.Role)
	assert.Equal(t, "New Hire", user.Name)

	_, err = profiles.SetRole(ctx, "ghost@aiden.ai", models.RoleLeadership)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestIntegration_RefreshTokenRotation(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	fixtures := testutil.NewFixtures(tdb.DB)
	tokens := services.NewTokenService(tdb.DB)

	identity := fixtures.CreateAccount(t)
	expiresAt := time.Now().Add(24 * time.Hour)

	first := services.HashToken("first")
	second := services.HashToken("second")
	require.NoError(t, tokens.StoreRefreshToken(ctx, identity.ID, first, expiresAt))

	require.NoError(t, tokens.RotateRefreshToken(ctx, identity.ID, first, second, expiresAt))

	// a rotated token cannot be used again
	err := tokens.RotateRefreshToken(ctx, identity.ID, first, services.HashToken("third"), expiresAt)
	assert.ErrorIs(t, err, services.ErrRefreshTokenNotFound)

	third := services.HashToken("third")
	require.NoError(t, tokens.RotateRefreshToken(ctx, identity.ID, second, third, expiresAt))

	require.NoError(t, tokens.RevokeAllUserTokens(ctx, identity.ID))
	err = tokens.RotateRefreshToken(ctx, identity.ID, third, services.HashToken("fourth"), expiresAt)
	assert.ErrorIs(t, err, services.ErrRefreshTokenNotFound)

	require.NoError(t, tokens.StoreRefreshToken(ctx, identity.ID, services.HashToken("stale"), time.Now().Add(-time.Hour)))
	n, err := tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIntegration_DashboardFromSeed(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	require.NoError(t, tdb.DB.SeedDemo(ctx, "unused-hash"))

	data := services.NewDashboardService(tdb.DB)
	reports := services.NewReportService(data)

	members, err := data.TeamMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 5)

	stats, err := reports.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalUXD+stats.TotalUXE)
	assert.Equal(t, 1, stats.ProjectsLive)
	assert.Equal(t, 2, stats.FreeResources)
	assert.Equal(t, 7, stats.TrainingsPending)

	finance, err := data.Portfolio(ctx, models.PortfolioFinance)
	require.NoError(t, err)
	assert.Len(t, finance, 2)

	tdb.CleanTables(t)
	members, err = data.TeamMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
}
