package mockapi

import (
	"context"
	"fmt"

	apperrors "github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/model"
)

// UserDirectory is an in-memory model.UserDirectory over a fixed backing set.
type UserDirectory struct {
	inj   *injector
	users []model.User
}

var _ model.UserDirectory = (*UserDirectory)(nil)

// GenerateUsers returns count users with IDs 1..count.
func GenerateUsers(count int) []model.User {
	users := make([]model.User, count)
	for i := range users {
		id := i + 1
		users[i] = model.User{
			ID:    id,
			Name:  fmt.Sprintf("User %d", id),
			Email: fmt.Sprintf("user%d@example.com", id),
		}
	}
	return users
}

// NewUserDirectory serves pages of users.
func NewUserDirectory(users []model.User, opts Options) *UserDirectory {
	return &UserDirectory{inj: newInjector(opts), users: users}
}

// NewDefaultUserDirectory uses 100 generated users and the reference
// latency and failure rate.
func NewDefaultUserDirectory() *UserDirectory {
	return NewUserDirectory(GenerateUsers(DefaultUserCount), Options{
		Latency:     DefaultUsersLatency,
		FailureRate: DefaultUsersFailureRate,
	})
}

// FetchUsers returns users [(page-1)*perPage, page*perPage) and the total.
// Pages past the end are empty.
func (d *UserDirectory) FetchUsers(ctx context.Context, page, perPage int) (model.UserPage, error) {
	if page < 1 || perPage <= 0 {
		return model.UserPage{}, apperrors.New(apperrors.CodeFetchUsers).
			Wrap(apperrors.New(apperrors.CodeInvalidPage).
				WithDetail(fmt.Sprintf("page=%d perPage=%d", page, perPage)))
	}
	if err := wait(ctx, d.inj.latency); err != nil {
		return model.UserPage{}, apperrors.New(apperrors.CodeFetchUsers).Wrap(err)
	}
	if d.inj.shouldFail() {
		return model.UserPage{}, apperrors.New(apperrors.CodeFetchUsers)
	}

	total := len(d.users)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := make([]model.User, end-start)
	copy(items, d.users[start:end])
	return model.UserPage{Items: items, TotalCount: total}, nil
}

// Len returns the size of the backing set.
func (d *UserDirectory) Len() int {
	return len(d.users)
}
