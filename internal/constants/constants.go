package constants

// Session
const (
	SessionCookieName = "task_session"
	// SessionKeyToken holds the bearer token returned by the remote API.
	SessionKeyToken = "jwt"
	// SessionKeyBoardID links the browser session to its in-memory board.
	SessionKeyBoardID = "board_id"

	ContextKeySession   = "session"
	ContextKeyRequestID = "request_id"
)

// Validation limits for forms
const (
	MinPasswordLength = 6
	MaxPasswordLength = 30
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinAddressLength  = 5
	MaxAddressLength  = 100
	MinPlaceLength    = 2
	MaxPlaceLength    = 50
)

// Pagination for admin tables
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AdminRole is the role value the remote API reports for administrators.
const AdminRole = "admin"

// ProvisionalIDPrefix marks client-side ids of tasks awaiting creation.
const ProvisionalIDPrefix = "pending-"

// DefaultInboxSize bounds the notices kept per board.
const DefaultInboxSize = 50

// MaxSuggestedTasks caps the drafts returned by one suggestion request.
const MaxSuggestedTasks = 20
