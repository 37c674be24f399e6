package permission

import (
	"github.com/autohub-app/autohub-backend/internal/models"
)

// Action is one of the four operations an admin can be granted on a feature.
type Action string

const (
	ActionAccess Action = "access"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Feature names the administrative areas of the marketplace. The catalog is
// closed: grant rows referencing anything else (e.g. written by an older
// version) simply never authorize.
type Feature string

const (
	FeatureUserManagement         Feature = "user_management"
	FeatureVehicleManagement      Feature = "vehicle_management"
	FeatureSettingsManagement     Feature = "settings_management"
	FeaturePaymentManagement      Feature = "payment_management"
	FeatureSubscriptionManagement Feature = "subscription_management"
	FeatureContentManagement      Feature = "content_management"
)

// Catalog maps every known feature to whether it exposes the full set of
// action bits. Access-only features surface just the access bit in the
// admin UI; the resolver itself still answers for all four actions.
var Catalog = map[Feature]struct{ AccessOnly bool }{
	FeatureUserManagement:         {},
	FeatureVehicleManagement:      {},
	FeatureSettingsManagement:     {AccessOnly: true},
	FeaturePaymentManagement:      {},
	FeatureSubscriptionManagement: {},
	FeatureContentManagement:      {AccessOnly: true},
}

// Known reports whether a feature name is part of the catalog.
func Known(f Feature) bool {
	_, ok := Catalog[f]
	return ok
}

// Actor is the authenticated principal a decision is made for.
type Actor struct {
	ID   string
	Role string
}

// GrantSet indexes an admin's FeatureGrant rows by feature name for lookup.
// Build one with NewGrantSet from whatever the caller fetched; a failed
// fetch should be handed in as an empty set so authorization fails closed.
type GrantSet map[Feature]models.FeatureGrant

func NewGrantSet(grants []models.FeatureGrant) GrantSet {
	set := make(GrantSet, len(grants))
	for _, g := range grants {
		set[Feature(g.Feature)] = g
	}
	return set
}

// Authorize decides whether the actor may perform action on feature.
//
// Superadmins pass unconditionally and regular users are refused
// unconditionally; only admins consult the grant set. A missing grant, a
// feature outside the catalog (even one a stale grant row still names) and
// an unknown action all deny rather than error, so a caller cannot probe
// the catalog through failure modes. The access bit
// gates the other three: with CanAccess false the stored create/edit/delete
// bits are ignored, which guards against stale rows left by older writers.
func Authorize(actor Actor, grants GrantSet, feature Feature, action Action) bool {
	if actor.Role == models.RoleSuperadmin {
		return true
	}
	if actor.Role != models.RoleAdmin {
		return false
	}

	if !Known(feature) {
		return false
	}

	grant, ok := grants[feature]
	if !ok {
		return false
	}

	switch action {
	case ActionAccess:
		return grant.CanAccess
	case ActionCreate:
		return grant.CanAccess && grant.CanCreate
	case ActionEdit:
		return grant.CanAccess && grant.CanEdit
	case ActionDelete:
		return grant.CanAccess && grant.CanDelete
	default:
		return false
	}
}
