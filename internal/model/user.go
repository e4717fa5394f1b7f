package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column.  The password
// column holds a one-way bcrypt hash; it never leaves the repository
// layer in API responses (see SafeUser).
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed credential.
//  PhoneNumber  – contact number (10 digits).
//  RoleID       – foreign key into the role table; nil after the
//                 referenced role is deleted (ON DELETE SET NULL).
//  Status       – "active" or "inactive".
//  ProfileImage – hosted image URL, empty until the image pipeline
//                 has processed an upload.
//  DateOfBirth  – optional date of birth.
//  RegisterDate – when the account was registered.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // users.id
	Name         string     // users.name
	Email        string     // users.email
	PasswordHash string     // users.password
	PhoneNumber  string     // users.phone_number
	RoleID       *uint64    // users.role_id (nullable)
	Status       string     // users.status
	ProfileImage string     // users.profile_image
	DateOfBirth  *time.Time // users.date_of_birth (nullable)
	RegisterDate time.Time  // users.register_date
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// StatusActive / StatusInactive are the only values users.status takes.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// SafeUser is the sanitized view of a user returned by the API: the
// credential column is stripped before anything leaves the handler.
type SafeUser struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phoneNumber"`
	RoleID       *uint64    `json:"roleId"`
	Status       string     `json:"status"`
	ProfileImage string     `json:"profileImage"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	RegisterDate time.Time  `json:"registerDate"`
}

// Sanitize strips the credential from a full user row.
func (u User) Sanitize() SafeUser {
	return SafeUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		RoleID:       u.RoleID,
		Status:       u.Status,
		ProfileImage: u.ProfileImage,
		DateOfBirth:  u.DateOfBirth,
		RegisterDate: u.RegisterDate,
	}
}
