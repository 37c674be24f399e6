package dto

type GrantRequest struct {
	Feature   string `json:"feature"`
	CanAccess bool   `json:"can_access"`
	CanCreate bool   `json:"can_create"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type SettingRequest struct {
	Value string `json:"value"`
}
