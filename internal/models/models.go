package models

// User is a registered account. Session holds the current session
// token and is empty while logged out.
type User struct {
	ID        int64
	Name      string
	Hash      string
	Salt      string
	Email     string
	RegDate   int64
	LoginDate int64
	AuthLevel int
	IP        string
	Session   string
}

// Post is an article. Author is the display name resolved at load
// time; it falls back to a synthetic name when the author row is gone.
type Post struct {
	ID       int64
	Title    string
	Content  string
	Date     int64
	AuthorID int64
	Author   string
	Views    int
	Rating   int
	Tags     []Tag
}

type Tag struct {
	ID   int64
	Name string
}
