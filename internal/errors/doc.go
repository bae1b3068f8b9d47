// Package errors provides the coded error taxonomy used across userpages.
//
// Collaborator failures come in exactly two kinds:
//   - fetch: the read path failed (profile or user list)
//   - update: the write path failed (profile save)
//
// Supporting kinds (config, validation, cli) cover the rest of the program.
//
// # Error Codes
//
// Each error has a unique code (e.g., "E001") that maps to:
//   - A kind
//   - A short, human-readable message
//   - An optional detail line
//
// # Usage
//
//	err := errors.New(errors.CodeFetchProfile)
//	errors.IsFetch(err)              // true
//	err.Error()                      // "Failed to fetch user profile"
//
//	fmt.Fprintln(os.Stderr, errors.FromError(err, errors.CodeCLI).Format())
package errors
