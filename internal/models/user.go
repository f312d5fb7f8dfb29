package models

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User is the locally persisted account. The Google refresh token is the
// long-lived credential used to build an authenticated Drive client. File
// metadata is never stored here; Drive stays the source of truth.
type User struct {
	BaseModel
	Email              string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash       string   `json:"-" gorm:"type:text;not null"`
	FirstName          string   `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName           string   `json:"lastName" gorm:"type:varchar(100);not null"`
	Role               UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	GoogleRefreshToken *string  `json:"-" gorm:"type:text"`
}

// HasDriveAccess reports whether a Drive client can be built for the user.
func (u *User) HasDriveAccess() bool {
	return u.GoogleRefreshToken != nil && *u.GoogleRefreshToken != ""
}
