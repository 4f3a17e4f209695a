// Package router maps the page request parameter to a module/action
// pair and normalizes raw request parameters into typed payloads.
package router

// Module selects one of the three model/view families.
type Module int

const (
	ModuleNewsFeed Module = iota
	ModuleProfile
	ModuleStandard
)

func (m Module) String() string {
	switch m {
	case ModuleNewsFeed:
		return "NewsFeed"
	case ModuleProfile:
		return "Profile"
	default:
		return "Standard"
	}
}

// Action is the operation requested within a module. The value doubles
// as the template name for form pages.
type Action string

const (
	ActionNewsFeed     Action = "newsfeed"
	ActionRandom       Action = "random"
	ActionUserPost     Action = "userpost"
	ActionTagged       Action = "tagged"
	ActionUserProfile  Action = "userprofile"
	ActionAdmin        Action = "admin"
	ActionNewPost      Action = "newpost"
	ActionEditPost     Action = "editpost"
	ActionDeletePost   Action = "deletepost"
	ActionSearch       Action = "search"
	ActionLogin        Action = "login"
	ActionLogout       Action = "logout"
	ActionRegistration Action = "registration"
	ActionError        Action = "error"
)

// Resolve picks the module and action for a page value. An empty page
// means the front page; anything unrecognized resolves to the error
// action — routing has no failure mode.
func Resolve(page string) (Module, Action) {
	if page == "" {
		page = "newsfeed"
	}
	switch page {
	case "newsfeed":
		return ModuleNewsFeed, ActionNewsFeed
	case "random":
		return ModuleNewsFeed, ActionRandom
	case "userpost":
		return ModuleNewsFeed, ActionUserPost
	case "tagged":
		return ModuleNewsFeed, ActionTagged
	case "profile":
		return ModuleProfile, ActionUserProfile
	case "admin":
		return ModuleProfile, ActionAdmin
	case "newpost":
		return ModuleProfile, ActionNewPost
	case "editpost":
		return ModuleProfile, ActionEditPost
	case "deletepost":
		return ModuleProfile, ActionDeletePost
	case "search":
		return ModuleStandard, ActionSearch
	case "login":
		return ModuleStandard, ActionLogin
	case "logout":
		return ModuleStandard, ActionLogout
	case "registration":
		return ModuleStandard, ActionRegistration
	default:
		return ModuleStandard, ActionError
	}
}
