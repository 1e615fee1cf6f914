// Package models defines the core data structures for users, habits, tags and entries.
package models

import "time"

// Identity is the authenticated principal carried inside a session token
// and attached to the request context.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// User is a stored credential together with its profile fields.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Email is unique across users.
	Email string
	// Username is the unique display login.
	Username string
	// PasswordHash is the bcrypt digest of the user's password. It never leaves the service layer.
	PasswordHash string
	FirstName    *string
	LastName     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the token identity of u.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Username: u.Username}
}

// Public strips the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the client-visible projection of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser holds the fields required to create a user. PasswordHash must
// already be hashed.
type NewUser struct {
	Email        string
	Username     string
	PasswordHash string
	FirstName    *string
	LastName     *string
}

// ProfilePatch lists profile fields to change. Nil fields are left as they are.
type ProfilePatch struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
}

// Frequency is how often a habit is expected to be completed.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Habit is an activity tracked by exactly one user.
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Frequency   Frequency `json:"frequency"`
	TargetCount int       `json:"targetCount"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// Tags is the habit's current tag set, filled on reads.
	Tags []Tag `json:"tags"`
}

// HabitFields are the writable attributes of a new habit.
type HabitFields struct {
	Name        string
	Description *string
	Frequency   Frequency
	TargetCount int
	IsActive    bool
}

// HabitPatch lists habit attributes to change. Nil fields are left as they are.
type HabitPatch struct {
	Name        *string
	Description *string
	Frequency   *Frequency
	TargetCount *int
	IsActive    *bool
}

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#6B7280"

// Tag is a global label that habits can carry. Names are unique.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TagDetail is a tag together with the caller's habits that use it.
type TagDetail struct {
	Tag
	Habits []Habit `json:"habits"`
}

// Entry records one completion of a habit.
type Entry struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habitId"`
	CompletionDate time.Time `json:"completionDate"`
	Note           *string   `json:"note"`
	CreatedAt      time.Time `json:"createdAt"`
}
