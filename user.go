package userconsole

// UserType is the role an account holds in the users API.
type UserType string

const (
	UserTypeRegular UserType = "regular"
	UserTypeAdmin   UserType = "admin"
)

// PrimaryAdminID is the seeded administrator. It is pinned to the top of every
// listing.
const PrimaryAdminID = 1

// User is an account as returned by the users API. The password is write-only
// and never part of this type.
type User struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Type  UserType `json:"type"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Type == UserTypeAdmin
}

// Credentials is the body of POST /login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the body returned by a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserInput is the body of create and update calls. An empty Password is
// omitted, which the API reads as "leave unchanged" on update.
type UserInput struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"`
	Type     UserType `json:"type"`
}
