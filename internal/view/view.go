// Package view turns an executed action result into the HTML response
// body. Templates are plain text with {{TOKEN}} placeholders replaced
// by literal substitution; values are intentionally not escaped, which
// matches the site's original output (a known XSS weakness, see
// DESIGN.md).
package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsfeed/internal/app"
	"newsfeed/internal/models"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
)

// dateFormat matches the human-readable post date of the original
// pages.
const dateFormat = "January 2 2006, 15:04:05"

type View struct {
	tpl map[string]string
}

// New preloads every .tpl file under dir, keyed by base name.
func New(dir string) (*View, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.tpl"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates in %s", dir)
	}
	v := &View{tpl: make(map[string]string, len(files))}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(file), ".tpl")
		v.tpl[name] = string(data)
	}
	return v, nil
}

func (v *View) template(name string) (string, error) {
	t, ok := v.tpl[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return t, nil
}

// Render builds the partial for the result's module and wraps it in
// the page shell.
func (v *View) Render(res *app.Result, sess *session.Session) (string, error) {
	var (
		partial string
		err     error
	)
	switch res.Module {
	case router.ModuleNewsFeed:
		partial, err = v.renderFeed(res, sess)
	case router.ModuleProfile:
		partial, err = v.renderProfile(res)
	default:
		partial, err = v.renderStandard(res)
	}
	if err != nil {
		return "", err
	}
	return v.wrap(res, sess, partial)
}

// wrap applies content.tpl (page name, site counters) and the fixed
// shell: meta, nav variant by login state, header, body, footer.
func (v *View) wrap(res *app.Result, sess *session.Session, partial string) (string, error) {
	content, err := v.template("content")
	if err != nil {
		return "", err
	}
	body := substitute(content, map[string]string{
		"PAGE-NAME":    pageName(res),
		"USER-COUNT":   fmt.Sprint(res.Stats.Users),
		"POST-COUNT":   fmt.Sprint(res.Stats.Posts),
		"TAG-COUNT":    fmt.Sprint(res.Stats.Tags),
		"PAGE-CONTENT": partial,
	})

	navbar := "navbar"
	if sess.LoggedIn() {
		navbar = "navbar-logged"
	}
	var page strings.Builder
	for _, name := range []string{"meta", navbar, "header"} {
		t, err := v.template(name)
		if err != nil {
			return "", err
		}
		page.WriteString(t)
	}
	page.WriteString(body)
	footer, err := v.template("footer")
	if err != nil {
		return "", err
	}
	page.WriteString(footer)
	return page.String(), nil
}

func pageName(res *app.Result) string {
	if res.Module == router.ModuleNewsFeed {
		return "News Feed"
	}
	return string(res.Action)
}

// renderFeed renders one post.tpl per loaded post: formatted date,
// line breaks converted to markup, a tag chip list, and management
// links for the post's author or an admin.
func (v *View) renderFeed(res *app.Result, sess *session.Session) (string, error) {
	postTpl, err := v.template("post")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	if res.Info != "" {
		out.WriteString(`<p class="info">` + res.Info + "</p>\n")
	}
	for _, post := range res.Posts {
		tagList, err := v.renderTags(post.Tags)
		if err != nil {
			return "", err
		}
		manager, err := v.renderManager(post, sess)
		if err != nil {
			return "", err
		}
		out.WriteString(substitute(postTpl, map[string]string{
			"POST-ID":      fmt.Sprint(post.ID),
			"POST-TITLE":   post.Title,
			"POST-CONTENT": nl2br(post.Content),
			"POST-AUTHOR":  post.Author,
			"POST-DATE":    time.Unix(post.Date, 0).Format(dateFormat),
			"POST-MANAGER": manager,
			"TAG-LIST":     tagList,
		}))
	}
	return out.String(), nil
}

func (v *View) renderTags(tags []models.Tag) (string, error) {
	tagTpl, err := v.template("tag")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, t := range tags {
		out.WriteString(substitute(tagTpl, map[string]string{
			"TAG_ID": fmt.Sprint(t.ID),
			"TAG":    t.Name,
		}))
	}
	return out.String(), nil
}

// renderManager emits the edit/delete fragment only when the viewer
// owns the post or is an admin.
func (v *View) renderManager(post models.Post, sess *session.Session) (string, error) {
	if !sess.CanManage(post.AuthorID) {
		return "", nil
	}
	t, err := v.template("managepost")
	if err != nil {
		return "", err
	}
	return substitute(t, map[string]string{"POST-ID": fmt.Sprint(post.ID)}), nil
}

func (v *View) renderProfile(res *app.Result) (string, error) {
	t, err := v.template(string(res.Action))
	if err != nil {
		return "", err
	}
	replaces := map[string]string{
		"USER-NAME":      "",
		"USER-EMAIL":     "",
		"USER-ID":        "",
		"USER-POSTCOUNT": "",
		"POST-ID":        "",
		"POST-TITLE":     "",
		"POST-CONTENT":   "",
		"POST-TAGS":      "",
		"MODEL-INFO":     res.Info,
	}
	for k, val := range res.Fields {
		replaces[k] = val
	}
	if res.Action == router.ActionAdmin {
		userList, err := v.renderUserList(res.Users)
		if err != nil {
			return "", err
		}
		replaces["USER-LIST"] = userList
	}
	return substitute(t, replaces), nil
}

func (v *View) renderUserList(users []models.User) (string, error) {
	rowTpl, err := v.template("adminuser")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, u := range users {
		out.WriteString(substitute(rowTpl, map[string]string{
			"USER-ID":      fmt.Sprint(u.ID),
			"USER-NAME":    u.Name,
			"USER-EMAIL":   u.Email,
			"USER-REGDATE": time.Unix(u.RegDate, 0).Format(dateFormat),
		}))
	}
	return out.String(), nil
}

func (v *View) renderStandard(res *app.Result) (string, error) {
	t, err := v.template(string(res.Action))
	if err != nil {
		return "", err
	}
	return substitute(t, map[string]string{"MODEL-INFO": res.Info}), nil
}

func substitute(template string, replaces map[string]string) string {
	pairs := make([]string, 0, len(replaces)*2)
	for token, value := range replaces {
		pairs = append(pairs, "{{"+token+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func nl2br(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>\n")
}
