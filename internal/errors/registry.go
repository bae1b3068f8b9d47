package errors

// Registered error codes.
const (
	CodeFetchProfile  = "E001"
	CodeUpdateProfile = "E002"
	CodeFetchUsers    = "E003"
	CodeInvalidPage   = "E010"
	CodeNotReady      = "E020"
	CodeUnknownField  = "E021"
	CodeSaveInFlight  = "E022"
	CodeConfigRead    = "E120"
	CodeConfigParse   = "E121"
	CodeConfigInvalid = "E122"
	CodeCLI           = "E200"
)

// Template defines a registered error type.
type Template struct {
	Kind    Kind
	Message string
	Detail  string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Collaborator Errors (E001-E009)
	// ============================================

	CodeFetchProfile: {
		Kind:    KindFetch,
		Message: "Failed to fetch user profile",
		Detail:  "The profile service did not return a profile. Retry to fetch it again.",
	},
	CodeUpdateProfile: {
		Kind:    KindUpdate,
		Message: "Failed to update profile",
		Detail:  "The profile service rejected the update. Local edits are kept.",
	},
	CodeFetchUsers: {
		Kind:    KindFetch,
		Message: "Failed to fetch users",
		Detail:  "The user directory did not return a page. Retry to fetch it again.",
	},

	// ============================================
	// Validation Errors (E010-E099)
	// ============================================

	CodeInvalidPage: {
		Kind:    KindValidation,
		Message: "Invalid page request",
		Detail:  "Page must be at least 1 and perPage must be positive.",
	},
	CodeNotReady: {
		Kind:    KindValidation,
		Message: "Profile is not loaded",
		Detail:  "Edits and saves require a loaded profile.",
	},
	CodeUnknownField: {
		Kind:    KindValidation,
		Message: "Unknown profile field",
		Detail:  "Only the name and email fields can be edited.",
	},
	CodeSaveInFlight: {
		Kind:    KindValidation,
		Message: "Save already in progress",
		Detail:  "Wait for the current save to finish before submitting again.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	CodeConfigRead: {
		Kind:    KindConfig,
		Message: "Failed to read config file",
	},
	CodeConfigParse: {
		Kind:    KindConfig,
		Message: "Failed to parse config file",
	},
	CodeConfigInvalid: {
		Kind:    KindConfig,
		Message: "Invalid configuration",
	},

	// ============================================
	// CLI Errors (E200-E219)
	// ============================================

	CodeCLI: {
		Kind:    KindCLI,
		Message: "Command failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
