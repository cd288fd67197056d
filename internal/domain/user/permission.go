package user

type Permission string

const (
	// Geofence permissions
	PermissionGeofenceView   Permission = "geofence.view"
	PermissionGeofenceManage Permission = "geofence.manage"

	// Timesheet permissions
	PermissionTimesheetWrite Permission = "timesheet.write"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionGeofenceView,
		PermissionGeofenceManage,
		PermissionTimesheetWrite,
	},
	RoleManager: {
		PermissionGeofenceView,
		PermissionGeofenceManage,
		PermissionTimesheetWrite,
	},
	RoleEmployee: {
		PermissionGeofenceView,
		PermissionTimesheetWrite,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
