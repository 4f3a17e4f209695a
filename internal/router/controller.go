package router

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"newsfeed/internal/config"
)

// ErrMissingTags is returned when the tagged action is requested
// without a tags parameter.
var ErrMissingTags = errors.New("no tags given")

// Payload is the normalized input for one action. Only the fields the
// action uses are filled in.
type Payload struct {
	Action Action
	Page   string // raw page value, echoed by the error action

	Limit      int    // newsfeed, random
	UserID     int64  // userpost
	TagPattern string // tagged, |-joined sanitized alternatives

	Name     string // login, registration
	Password string
	Email    string

	Title   string // newpost, editpost
	Content string
	TagList string

	PostID    int64 // editpost, deletepost
	Confirmed bool  // deletepost
}

// Build normalizes raw request parameters into the payload for an
// action. The search, logout and error actions carry no input.
func Build(action Action, page string, params map[string]string, cfg *config.Config) (Payload, error) {
	p := Payload{Action: action, Page: page}
	switch action {
	case ActionNewsFeed:
		p.Limit = cfg.Feed.NewsDefault
	case ActionRandom:
		p.Limit = cfg.Feed.RandomDefault
	case ActionUserPost:
		p.UserID = atoi64(params["id"])
	case ActionTagged:
		raw, ok := params["tags"]
		if !ok {
			return p, ErrMissingTags
		}
		p.TagPattern = SanitizeTags(raw)
	case ActionLogin:
		p.Name = params["name"]
		p.Password = params["password"]
	case ActionRegistration:
		p.Name = params["name"]
		p.Password = params["password"]
		p.Email = params["email"]
	case ActionNewPost:
		p.Title = params["title"]
		p.Content = params["content"]
		p.TagList = params["taglist"]
	case ActionEditPost:
		p.Title = params["title"]
		p.Content = params["content"]
		p.TagList = params["taglist"]
		p.PostID = atoi64(params["id"])
	case ActionDeletePost:
		_, p.Confirmed = params["confirmed"]
		p.PostID = atoi64(params["id"])
	}
	return p, nil
}

var tagCharset = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// SanitizeTags turns a comma-separated tag list into the |-joined
// search pattern: + collapses to space, anything outside
// [A-Za-z0-9\s] is stripped, each entry is trimmed. Splitting on |
// as well keeps the function idempotent.
func SanitizeTags(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '|'
	})
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := CleanTag(part); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, "|")
}

// CleanTag sanitizes a single tag name.
func CleanTag(tag string) string {
	tag = strings.ReplaceAll(tag, "+", " ")
	tag = tagCharset.ReplaceAllString(tag, "")
	return strings.TrimSpace(tag)
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
