package constants

const (
	ViewOrg        = "view_org"
	UpdateOrg      = "update_org"
	InviteMember   = "invite_member"
	RemoveMember   = "remove_member"
	AssignRole     = "assign_role"
	ManageProjects = "manage_projects"
	ViewProjects   = "view_projects"
	ManageTasks    = "manage_tasks"
	ManageBilling  = "manage_billing"
	UploadFiles    = "upload_files"
)
