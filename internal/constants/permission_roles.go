package constants

// PermissionRoles maps each permission to the membership roles allowed to
// perform it. A user with no membership in the target org matches nothing.
var PermissionRoles = map[string][]string{
	ViewOrg:        {Member, TeamLead, Admin},
	UpdateOrg:      {Admin},
	InviteMember:   {TeamLead, Admin},
	RemoveMember:   {Admin},
	AssignRole:     {Admin},
	ManageProjects: {TeamLead, Admin},
	ViewProjects:   {Member, TeamLead, Admin},
	ManageTasks:    {Member, TeamLead, Admin},
	ManageBilling:  {Admin},
	UploadFiles:    {Member, TeamLead, Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
