package authz

const (
	RoleOutreach   = 10
	RoleCampaigns  = 20
	RoleAnalyst    = 30
	RoleManagement = 40
	RoleAdmin      = 50
)

func IsElevated(roleID int) bool {
	return roleID == RoleCampaigns || roleID == RoleManagement || roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAnalyst
}
