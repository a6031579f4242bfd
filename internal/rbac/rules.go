package rbac

// Default policy. Students answer and review their own questions; admins
// curate content and run the maintenance passes.
var RolePermissions = map[string][]string{
	"student": {
		"question:view",
		"submission:create",
		"attempt:view-own",
		"review:view-own",
		"video:view",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
