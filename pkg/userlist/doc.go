// Package userlist implements the controller behind the paginated user list.
package userlist
