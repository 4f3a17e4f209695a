package app

import (
	"strings"

	"newsfeed/internal/models"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
)

// executeStandard handles the form and session actions. Empty
// submissions are not errors: the form renders again with a blank
// info line.
func (a *App) executeStandard(res *Result, sess *session.Session, p router.Payload) error {
	switch p.Action {
	case router.ActionSearch:
		a.search(res)
	case router.ActionLogin:
		a.login(res, sess, p)
	case router.ActionRegistration:
		a.register(res, sess, p)
	case router.ActionLogout:
		sess.Logout()
		res.Redirect = "/"
	case router.ActionError:
		res.Info = p.Page
	}
	return nil
}

// search shows the most used tags as suggestions.
func (a *App) search(res *Result) {
	tags, err := models.PopularTags(a.store, a.cfg.Feed.TagCountDefault)
	if err != nil {
		res.Info = msgStoreFailure
		return
	}
	res.Info = strings.Join(tags, ", ")
}

func (a *App) login(res *Result, sess *session.Session, p router.Payload) {
	if p.Name == "" || p.Password == "" {
		res.Info = ""
		return
	}
	if err := sess.Login(p.Name, p.Password); err != nil {
		res.Info = err.Error()
		return
	}
	res.Redirect = "/"
}

func (a *App) register(res *Result, sess *session.Session, p router.Payload) {
	if p.Name == "" || p.Password == "" || p.Email == "" {
		res.Info = ""
		return
	}
	if _, err := sess.Register(p.Name, p.Password, p.Email); err != nil {
		res.Info = err.Error()
		return
	}
	res.Redirect = "/?page=login"
}
