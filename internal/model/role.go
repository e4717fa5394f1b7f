package model

// Role represents a row in the `role` table.  Role names are unique,
// letters and spaces only.  Users reference roles via users.role_id;
// deleting a role detaches its users instead of deleting them.
type Role struct {
	ID       uint64 `json:"id"`       // role.id
	RoleType string `json:"roleType"` // role.role_type
}
