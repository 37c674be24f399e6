package permission

import (
	"testing"

	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

var allActions = []Action{ActionAccess, ActionCreate, ActionEdit, ActionDelete}

func allFeatures() []Feature {
	features := make([]Feature, 0, len(Catalog))
	for f := range Catalog {
		features = append(features, f)
	}
	return features
}

func TestSuperadminPassesEverything(t *testing.T) {
	actor := Actor{ID: "sa-1", Role: models.RoleSuperadmin}

	// No grant rows at all: superadmin must still pass every
	// feature/action combination.
	for _, f := range allFeatures() {
		for _, a := range allActions {
			assert.True(t, Authorize(actor, nil, f, a), "superadmin denied %s/%s", f, a)
		}
	}
}

func TestRegularUserNeverPasses(t *testing.T) {
	// Even with grant rows present (stale data from a demotion), a plain
	// user is refused before any lookup happens.
	grants := NewGrantSet([]models.FeatureGrant{
		{Feature: string(FeatureVehicleManagement), CanAccess: true, CanCreate: true, CanEdit: true, CanDelete: true},
	})
	actor := Actor{ID: "u-1", Role: models.RoleUser}

	for _, f := range allFeatures() {
		for _, a := range allActions {
			assert.False(t, Authorize(actor, grants, f, a), "user passed %s/%s", f, a)
		}
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	actor := Actor{ID: "x-1", Role: "moderator"}
	assert.False(t, Authorize(actor, nil, FeatureUserManagement, ActionAccess))
}

func TestAdminGrantBits(t *testing.T) {
	admin := Actor{ID: "a-1", Role: models.RoleAdmin}

	cases := []struct {
		name    string
		grant   models.FeatureGrant
		action  Action
		allowed bool
	}{
		{
			name:    "access granted",
			grant:   models.FeatureGrant{Feature: "vehicle_management", CanAccess: true},
			action:  ActionAccess,
			allowed: true,
		},
		{
			name:    "access with edit bit",
			grant:   models.FeatureGrant{Feature: "vehicle_management", CanAccess: true, CanEdit: true},
			action:  ActionEdit,
			allowed: true,
		},
		{
			name:    "access without edit bit",
			grant:   models.FeatureGrant{Feature: "vehicle_management", CanAccess: true, CanEdit: false},
			action:  ActionEdit,
			allowed: false,
		},
		{
			name:    "create bit without access is inert",
			grant:   models.FeatureGrant{Feature: "vehicle_management", CanAccess: false, CanCreate: true},
			action:  ActionCreate,
			allowed: false,
		},
		{
			name:    "delete bit without access is inert",
			grant:   models.FeatureGrant{Feature: "user_management", CanAccess: false, CanDelete: true},
			action:  ActionDelete,
			allowed: false,
		},
		{
			name:    "no access bit denies access too",
			grant:   models.FeatureGrant{Feature: "payment_management", CanAccess: false},
			action:  ActionAccess,
			allowed: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grants := NewGrantSet([]models.FeatureGrant{tc.grant})
			got := Authorize(admin, grants, Feature(tc.grant.Feature), tc.action)
			assert.Equal(t, tc.allowed, got)
		})
	}
}

func TestAdminMissingGrantDenied(t *testing.T) {
	admin := Actor{ID: "a-2", Role: models.RoleAdmin}

	// No grant rows at all.
	assert.False(t, Authorize(admin, NewGrantSet(nil), FeatureSettingsManagement, ActionAccess))

	// A grant on one feature says nothing about another.
	grants := NewGrantSet([]models.FeatureGrant{
		{Feature: string(FeatureVehicleManagement), CanAccess: true, CanCreate: true, CanEdit: true, CanDelete: true},
	})
	for _, a := range allActions {
		assert.False(t, Authorize(admin, grants, FeatureUserManagement, a))
	}
}

func TestUnknownFeatureDenied(t *testing.T) {
	admin := Actor{ID: "a-3", Role: models.RoleAdmin}

	// A grant row written by an older version for a feature no longer in
	// the catalog must deny, not panic — and the stale row itself does
	// not resurrect the feature.
	grants := NewGrantSet([]models.FeatureGrant{
		{Feature: "legacy_reports", CanAccess: true, CanEdit: true},
	})
	assert.False(t, Authorize(admin, grants, Feature("report_management"), ActionAccess))
	assert.False(t, Authorize(admin, grants, Feature("legacy_reports"), ActionAccess))
	assert.False(t, Known(Feature("legacy_reports")))
}

func TestUnknownActionDenied(t *testing.T) {
	admin := Actor{ID: "a-4", Role: models.RoleAdmin}
	grants := NewGrantSet([]models.FeatureGrant{
		{Feature: string(FeatureVehicleManagement), CanAccess: true, CanCreate: true, CanEdit: true, CanDelete: true},
	})
	assert.False(t, Authorize(admin, grants, FeatureVehicleManagement, Action("publish")))
}

func TestCatalogAccessOnlyEntries(t *testing.T) {
	assert.True(t, Catalog[FeatureSettingsManagement].AccessOnly)
	assert.True(t, Catalog[FeatureContentManagement].AccessOnly)
	assert.False(t, Catalog[FeatureVehicleManagement].AccessOnly)
}
