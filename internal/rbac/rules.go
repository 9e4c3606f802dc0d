package rbac

// Route-level policy by global role. Per-course authorization (is this user an
// educator of the quiz's course) happens inside the quiz service; these
// permissions only decide which routes a role may reach at all.
var RolePermissions = map[string][]string{
	"student": {
		"course:list",
		"quiz:view",
		"submission:start",
		"submission:save",
		"submission:view",
		"marks:view",
		"user:change_password",
	},
	"educator": {
		"course:list",
		"course:create",
		"course:enroll",
		"quiz:*",
		"submission:view",
		"marks:*",
		"users:list",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
