package constants

// Account rules
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// Session keys
const (
	SessionCookieName = "taskboard_session"
	ContextKeyUserID  = "user_id"
	ContextKeySession = "session"
)

// Storage collection keys
const (
	KeyUsers       = "users"
	KeyTasks       = "tasks"
	KeyCurrentUser = "currentUser"
)

// DueDateLayout is the calendar-date format used for task due dates.
const DueDateLayout = "2006-01-02"

// FilterAll matches every status or priority in a board filter.
const FilterAll = "all"
