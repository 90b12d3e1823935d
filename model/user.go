package model

// Role of a signed-in user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// UserRecord is the persisted role record at users/<uid>
type UserRecord struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Disabled  bool   `json:"disabled"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Identity is who a verified token says the caller is
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
