package render

import (
	"strconv"

	"github.com/vango-dev/userpages/pkg/action"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/resource"
	"github.com/vango-dev/userpages/pkg/userlist"
)

// View kinds.
const (
	KindLoading = "loading"
	KindError   = "error"
	KindReady   = "ready"
)

// ProfileView is the template model of the profile page.
type ProfileView struct {
	Kind    string
	Message string
	Profile model.UserProfile

	// Saving disables the form while a save runs.
	Saving bool

	// SaveMessage is the outcome of the last finished save.
	SaveMessage string
	SaveFailed  bool
}

// NewProfileView builds the view for snap.
func NewProfileView(snap profile.Snapshot) ProfileView {
	v := resource.Match(snap.Load,
		resource.OnLoadingOrIdle[model.UserProfile](func() ProfileView {
			return ProfileView{Kind: KindLoading}
		}),
		resource.OnError[model.UserProfile](func(msg string) ProfileView {
			return ProfileView{Kind: KindError, Message: msg}
		}),
		resource.OnReady(func(p model.UserProfile) ProfileView {
			return ProfileView{Kind: KindReady, Profile: p}
		}),
	)
	switch snap.Save.Status {
	case action.Saving:
		v.Saving = true
	case action.Done:
		v.SaveMessage = snap.Save.Message
	case action.Failed:
		v.SaveMessage = snap.Save.Message
		v.SaveFailed = true
	}
	return v
}

// UsersView is the template model of the user list page.
type UsersView struct {
	Kind       string
	Message    string
	Users      []model.User
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// NewUsersView builds the view for snap.
func NewUsersView(snap userlist.Snapshot) UsersView {
	v := resource.Match(snap.Load,
		resource.OnLoadingOrIdle[model.UserPage](func() UsersView {
			return UsersView{Kind: KindLoading}
		}),
		resource.OnError[model.UserPage](func(msg string) UsersView {
			return UsersView{Kind: KindError, Message: msg}
		}),
		resource.OnReady(func(p model.UserPage) UsersView {
			return UsersView{Kind: KindReady, Users: p.Items}
		}),
	)
	v.Page = snap.Page
	v.TotalPages = snap.TotalPages
	v.HasPrev = snap.Page > 1
	v.HasNext = snap.Page < snap.TotalPages
	return v
}

// ProfileKey identifies what the profile page shows for snap. The page
// reloads when a pushed key differs from the rendered one.
func ProfileKey(snap profile.Snapshot) string {
	return snap.Load.Status.String() + "/" + snap.Save.Status.String()
}

// UsersKey identifies what the user list page shows for snap.
func UsersKey(snap userlist.Snapshot) string {
	return snap.Load.Status.String() + "/" + strconv.Itoa(snap.Page)
}
