package web

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/forms"
	"github.com/meur/reviewhub/internal/i18n"
	"github.com/meur/reviewhub/internal/session"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const cookieName = "reviewhub"

func init() {
	gob.Register(flash{})
}

// flash is a toast carried to the next page render.
type flash struct {
	Level  string
	Title  string
	Detail string
}

// cookieSlot keeps the bearer token inside the signed session cookie.
type cookieSlot struct {
	values map[interface{}]interface{}
}

func (c cookieSlot) Load() (string, bool, error) {
	token, ok := c.values[session.TokenKey].(string)
	return token, ok && token != "", nil
}

func (c cookieSlot) Save(value string) error {
	c.values[session.TokenKey] = value
	return nil
}

func (c cookieSlot) Clear() error {
	delete(c.values, session.TokenKey)
	return nil
}

// request bundles the per-request view of the browser session.
type request struct {
	cookie  *sessions.Session
	session *session.Session
	api     *apiclient.Client
	lang    language.Tag
	printer *message.Printer
	toasts  int
}

func (s *Server) begin(w http.ResponseWriter, r *http.Request) *request {
	cookie, err := s.cookies.Get(r, cookieName)
	if err != nil {
		// A cookie signed with an old key decodes to a fresh session.
		cookie, _ = s.cookies.New(r, cookieName)
	}
	sess, _ := session.New(cookieSlot{values: cookie.Values})

	lang, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, lang)
	}

	return &request{
		cookie:  cookie,
		session: sess,
		api:     s.api.WithSession(sess),
		lang:    lang,
		printer: i18n.Printer(lang),
	}
}

// Notify implements forms.Notifier by queueing a flash.
func (rq *request) Notify(t forms.Toast) {
	rq.toasts++
	rq.cookie.AddFlash(flash{Level: t.Level.String(), Title: t.Title, Detail: t.Detail})
}

// flashes drains queued toasts.
func (rq *request) flashes() []flash {
	var out []flash
	for _, v := range rq.cookie.Flashes() {
		if f, ok := v.(flash); ok {
			out = append(out, f)
		}
	}
	return out
}

func (rq *request) deps() forms.Deps {
	return forms.Deps{API: rq.api, Notify: rq}
}

func (rq *request) save(w http.ResponseWriter, r *http.Request) error {
	return rq.cookie.Save(r, w)
}
