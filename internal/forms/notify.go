package forms

// Level is the severity of a toast.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a transient notification.
type Toast struct {
	Level  Level
	Title  string
	Detail string
}

// Notifier is the toast side channel.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

// Toast titles. They double as i18n message keys.
const (
	TitleGameAdded     = "Game added"
	TitleReviewPosted  = "Review posted"
	TitleCoverUpdated  = "Cover updated"
	TitleCoverRemoved  = "Cover removed"
	TitleUploadFailed  = "Upload failed"
	TitleDeleteFailed  = "Delete failed"
	TitleRegistered    = "Registered. Please log in."
	TitleRegisterFail  = "Registration failed"
	TitleLoggedIn      = "Logged in"
	TitleLoginFailed   = "Login failed"
	TitleLoggedOut     = "Logged out"
	TitleSomethingFail = "Something went wrong"
)
