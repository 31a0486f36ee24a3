// Package forms implements the mutation forms of the client: create game,
// post review, upload/delete cover, login and register.
//
// Every form is a small state machine, idle → submitting → (idle | error).
// A submit validates locally, sends exactly one request and, on success,
// resets its fields and returns the result. Re-querying the list is the
// caller's decision, wired through Deps.Refresh.
package forms

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/models"
	"github.com/meur/reviewhub/internal/session"
)

var (
	// ErrBusy is returned when a form is submitted while a submit is in flight.
	ErrBusy = errors.New("form is already submitting")
	// ErrLoginRequired is returned when an action needs a session, either
	// before sending or because the API answered 401.
	ErrLoginRequired = errors.New("login required, please sign in again")
	// ErrNoFile is returned by a cover upload without a file.
	ErrNoFile = errors.New("choose a file to upload")
)

// Status is the state of a form.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// API is the subset of *apiclient.Client the forms use.
type API interface {
	Session() *session.Session
	CreateGame(ctx context.Context, in models.GameCreate) (*models.Game, error)
	SubmitReview(ctx context.Context, in models.ReviewCreate) (*models.Review, error)
	UploadCover(ctx context.Context, gameID int, filename string, r io.Reader, progress apiclient.ProgressFunc) (*models.Game, error)
	DeleteCover(ctx context.Context, gameID int) error
	Register(ctx context.Context, creds models.Credentials) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
}

// Deps are shared by every form.
type Deps struct {
	API API
	// Notify receives toasts. Nil discards them.
	Notify Notifier
	// Refresh, when set, runs after a successful mutation. Its error does not
	// fail the mutation; the list reports its own errors.
	Refresh func(ctx context.Context) error
}

func (d Deps) toast(t Toast) {
	if d.Notify != nil {
		d.Notify.Notify(t)
	}
}

func (d Deps) refresh(ctx context.Context) {
	if d.Refresh != nil {
		_ = d.Refresh(ctx)
	}
}

// machine tracks the state shared by every form.
type machine struct {
	mu     sync.Mutex
	status Status
	err    error
}

// Status returns the form state.
func (m *machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the last error, or nil unless Status is StatusError.
func (m *machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ErrText returns the last error as display text.
func (m *machine) ErrText() string {
	return Message(m.Err())
}

// Message turns a form error into display text.
func Message(err error) string {
	if errors.Is(err, ErrLoginRequired) {
		return ErrLoginRequired.Error()
	}
	return apiclient.Message(err)
}

func (m *machine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusSubmitting {
		return ErrBusy
	}
	m.status = StatusSubmitting
	m.err = nil
	return nil
}

func (m *machine) end(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.status = StatusError
		m.err = err
		return err
	}
	m.status = StatusIdle
	m.err = nil
	return nil
}

// fail records a client-side validation failure without a submit.
func (m *machine) fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusSubmitting {
		return ErrBusy
	}
	m.status = StatusError
	m.err = err
	return err
}

// loginRequired maps a 401 or missing token into ErrLoginRequired.
func loginRequired(err error) error {
	if apiclient.IsUnauthorized(err) || errors.Is(err, apiclient.ErrNotSignedIn) {
		return errors.Join(ErrLoginRequired, err)
	}
	return err
}
