package forms

import (
	"context"
	"strings"

	"github.com/meur/reviewhub/internal/models"
)

// AuthForm backs the login page: one set of credentials, two actions.
type AuthForm struct {
	machine
	deps Deps

	Email    string
	Password string
}

// NewAuthForm returns an empty login/register form.
func NewAuthForm(deps Deps) *AuthForm {
	return &AuthForm{deps: deps}
}

func (f *AuthForm) credentials() models.Credentials {
	return models.Credentials{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// Login exchanges the credentials for a token, which the client stores in
// the session.
func (f *AuthForm) Login(ctx context.Context) (*models.TokenResponse, error) {
	creds := f.credentials()
	if err := creds.Validate(); err != nil {
		return nil, f.fail(err)
	}
	if err := f.begin(); err != nil {
		return nil, err
	}
	tok, err := f.deps.API.Login(ctx, creds)
	if err != nil {
		f.deps.toast(Toast{Level: LevelError, Title: TitleLoginFailed, Detail: Message(err)})
		return nil, f.end(err)
	}
	f.Password = ""
	f.end(nil)
	f.deps.toast(Toast{Level: LevelSuccess, Title: TitleLoggedIn})
	return tok, nil
}

// Register creates the account. It does not sign in.
func (f *AuthForm) Register(ctx context.Context) (*models.User, error) {
	creds := f.credentials()
	if err := creds.Validate(); err != nil {
		return nil, f.fail(err)
	}
	if err := f.begin(); err != nil {
		return nil, err
	}
	user, err := f.deps.API.Register(ctx, creds)
	if err != nil {
		f.deps.toast(Toast{Level: LevelError, Title: TitleRegisterFail, Detail: Message(err)})
		return nil, f.end(err)
	}
	f.end(nil)
	f.deps.toast(Toast{Level: LevelSuccess, Title: TitleRegistered})
	return user, nil
}

// Logout signs the session out.
func Logout(deps Deps) error {
	if err := deps.API.Session().Clear(); err != nil {
		return err
	}
	deps.toast(Toast{Level: LevelSuccess, Title: TitleLoggedOut})
	return nil
}
