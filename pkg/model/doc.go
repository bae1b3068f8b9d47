// Package model defines the records shown by the profile and user list pages
// and the collaborator contracts the page controllers consume.
package model
