package model

import "context"

// DefaultPerPage is the page size of the user list.
const DefaultPerPage = 10

// UserProfile is the single profile edited on the profile page.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfilePatch carries only the fields an update touches.
type ProfilePatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// PatchOf returns a patch carrying every field of p.
func PatchOf(p UserProfile) ProfilePatch {
	name, email := p.Name, p.Email
	return ProfilePatch{Name: &name, Email: &email}
}

// Apply returns p with the fields present in the patch replaced.
func (pp ProfilePatch) Apply(p UserProfile) UserProfile {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	return p
}

// Empty reports whether the patch touches no field.
func (pp ProfilePatch) Empty() bool {
	return pp.Name == nil && pp.Email == nil
}

// Field names accepted by profile editing.
const (
	FieldName  = "name"
	FieldEmail = "email"
)

// User is one row of the user list. ID is 1-based and never changes.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Page is one slice of a larger ordered collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// UserPage is a page of the user list.
type UserPage = Page[User]

// TotalPages returns max(1, ceil(total/perPage)).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	n := (total + perPage - 1) / perPage
	if n < 1 {
		return 1
	}
	return n
}

// ProfileService reads and writes the profile.
type ProfileService interface {
	FetchUserProfile(ctx context.Context) (UserProfile, error)
	UpdateUserProfile(ctx context.Context, patch ProfilePatch) (ProfilePatch, error)
}

// UserDirectory serves pages of users.
type UserDirectory interface {
	FetchUsers(ctx context.Context, page, perPage int) (UserPage, error)
}
