package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"newsfeed/internal/store"
)

var ErrPostNotFound = errors.New("could not load post")

// --- users ---

func CreateUser(st *store.Store, name, hash, salt, email, ip string, regdate int64) (int64, error) {
	res, err := st.Exec(`INSERT INTO users (name, hash, salt, email, regdate, ip) VALUES (?, ?, ?, ?, ?, ?)`,
		name, hash, salt, email, regdate, ip)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UserExists reports whether a user with the given name or email is
// already registered.
func UserExists(st *store.Store, name, email string) (bool, error) {
	var n int
	err := st.QueryRow(`SELECT COUNT(user_id) FROM users WHERE name = ? OR email = ?`, name, email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func GetUserByName(st *store.Store, name string) (*User, error) {
	return scanUser(st.QueryRow(userColumns+` WHERE name = ? LIMIT 1`, name))
}

func GetUserByID(st *store.Store, id int64) (*User, error) {
	return scanUser(st.QueryRow(userColumns+` WHERE user_id = ? LIMIT 1`, id))
}

// GetUserBySession finds the user holding a session token. Empty
// tokens never match: a logged-out user's stored token is empty.
func GetUserBySession(st *store.Store, token string) (*User, error) {
	if token == "" {
		return nil, sql.ErrNoRows
	}
	return scanUser(st.QueryRow(userColumns+` WHERE session = ? LIMIT 1`, token))
}

const userColumns = `SELECT user_id, name, hash, salt, email, regdate, logindate, authlevel, ip, session FROM users`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Hash, &u.Salt, &u.Email, &u.RegDate, &u.LoginDate, &u.AuthLevel, &u.IP, &u.Session)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserLogin records a fresh session token together with the IP
// and time it was minted at.
func UpdateUserLogin(st *store.Store, id int64, ip string, logindate int64, session string) error {
	_, err := st.Exec(`UPDATE users SET ip = ?, logindate = ?, session = ? WHERE user_id = ?`,
		ip, logindate, session, id)
	return err
}

func ClearUserSession(st *store.Store, id int64) error {
	_, err := st.Exec(`UPDATE users SET session = '' WHERE user_id = ?`, id)
	return err
}

// ListRecentUsers returns the newest registrations first.
func ListRecentUsers(st *store.Store, limit int) ([]User, error) {
	rows, err := st.Query(`SELECT user_id, name, email, regdate, authlevel FROM users ORDER BY regdate DESC, user_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.RegDate, &u.AuthLevel); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- posts ---

func CreatePost(st *store.Store, title, content string, date, authorID int64) (int64, error) {
	res, err := st.Exec(`INSERT INTO posts (title, content, date, author_id) VALUES (?, ?, ?, ?)`,
		title, content, date, authorID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func GetPost(st *store.Store, id int64) (*Post, error) {
	row := st.QueryRow(`SELECT post_id, title, content, date, author_id, views, rating FROM posts WHERE post_id = ? LIMIT 1`, id)
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Date, &p.AuthorID, &p.Views, &p.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePost overwrites title, content and timestamp.
func UpdatePost(st *store.Store, id int64, title, content string, date int64) error {
	_, err := st.Exec(`UPDATE posts SET title = ?, content = ?, date = ? WHERE post_id = ?`,
		title, content, date, id)
	return err
}

// DeletePost removes the post row and its tag associations. The two
// statements commit independently.
func DeletePost(st *store.Store, id int64) error {
	if _, err := st.Exec(`DELETE FROM tagged_posts WHERE post_id = ?`, id); err != nil {
		return err
	}
	_, err := st.Exec(`DELETE FROM posts WHERE post_id = ?`, id)
	return err
}

func PostExists(st *store.Store, id int64) (bool, error) {
	var n int
	if err := st.QueryRow(`SELECT COUNT(post_id) FROM posts WHERE post_id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// PostIDStats returns the row count and the id range of the posts
// table. min and max are zero when the table is empty.
func PostIDStats(st *store.Store) (count int, min, max int64, err error) {
	var minN, maxN sql.NullInt64
	err = st.QueryRow(`SELECT COUNT(1), MIN(post_id), MAX(post_id) FROM posts`).Scan(&count, &minN, &maxN)
	if err != nil {
		return 0, 0, 0, err
	}
	return count, minN.Int64, maxN.Int64, nil
}

const postColumns = `SELECT p.post_id, p.title, p.content, p.date, p.author_id, p.views, p.rating, u.name
	FROM posts p LEFT JOIN users u ON p.author_id = u.user_id`

func ListLatestPosts(st *store.Store, limit int) ([]Post, error) {
	rows, err := st.Query(postColumns+` ORDER BY p.date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return fetchPosts(st, rows)
}

func ListPostsByAuthor(st *store.Store, authorID int64, limit int) ([]Post, error) {
	rows, err := st.Query(postColumns+` WHERE p.author_id = ? ORDER BY p.date DESC LIMIT ?`, authorID, limit)
	if err != nil {
		return nil, err
	}
	return fetchPosts(st, rows)
}

func ListPostsByIDs(st *store.Store, ids []int64) ([]Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := postColumns + ` WHERE p.post_id IN (` + placeholders(len(ids)) + `) ORDER BY p.date DESC`
	rows, err := st.Query(query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	return fetchPosts(st, rows)
}

func ListPostsByTagIDs(st *store.Store, tagIDs []int64) ([]Post, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT p.post_id, p.title, p.content, p.date, p.author_id, p.views, p.rating, u.name
		FROM posts p
		LEFT JOIN users u ON p.author_id = u.user_id
		JOIN tagged_posts tp ON p.post_id = tp.post_id
		WHERE tp.tag_id IN (` + placeholders(len(tagIDs)) + `) ORDER BY p.date DESC`
	rows, err := st.Query(query, int64Args(tagIDs)...)
	if err != nil {
		return nil, err
	}
	return fetchPosts(st, rows)
}

// fetchPosts scans joined post rows and enriches each with its tag
// list and a display author name. Posts may reference users that no
// longer exist; those get a synthetic author name.
func fetchPosts(st *store.Store, rows *sql.Rows) ([]Post, error) {
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		var p Post
		var author sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Date, &p.AuthorID, &p.Views, &p.Rating, &author); err != nil {
			return nil, err
		}
		if author.Valid {
			p.Author = author.String
		} else {
			p.Author = fmt.Sprintf("unknown author %d", p.AuthorID)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		tags, err := TagsForPost(st, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Tags = tags
	}
	return posts, nil
}

func CountPostsByAuthor(st *store.Store, authorID int64) (int, error) {
	var n int
	err := st.QueryRow(`SELECT COUNT(post_id) FROM posts WHERE author_id = ?`, authorID).Scan(&n)
	return n, err
}

// --- tags ---

// GetTagID looks up a tag by exact name.
func GetTagID(st *store.Store, name string) (int64, bool, error) {
	var id int64
	err := st.QueryRow(`SELECT tag_id FROM tags WHERE name = ? LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func CreateTag(st *store.Store, name string) (int64, error) {
	res, err := st.Exec(`INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// TagPost associates a tag with a post. Duplicates are dropped by the
// store's uniqueness constraint, not checked here.
func TagPost(st *store.Store, postID, tagID int64) error {
	_, err := st.Exec(`INSERT OR IGNORE INTO tagged_posts (post_id, tag_id) VALUES (?, ?)`, postID, tagID)
	return err
}

func UntagPost(st *store.Store, postID int64) error {
	_, err := st.Exec(`DELETE FROM tagged_posts WHERE post_id = ?`, postID)
	return err
}

func TagsForPost(st *store.Store, postID int64) ([]Tag, error) {
	rows, err := st.Query(`SELECT t.tag_id, t.name FROM tagged_posts tp JOIN tags t ON tp.tag_id = t.tag_id WHERE tp.post_id = ? ORDER BY t.tag_id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// FindTagIDs resolves tag-name alternatives to ids with OR semantics.
// Each alternative matches as a substring of the tag name.
func FindTagIDs(st *store.Store, alternatives []string) ([]int64, error) {
	var conds []string
	var args []any
	for _, alt := range alternatives {
		if alt == "" {
			continue
		}
		conds = append(conds, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+store.EscapeLike(alt)+"%")
	}
	if len(conds) == 0 {
		return nil, nil
	}
	rows, err := st.Query(`SELECT tag_id FROM tags WHERE `+strings.Join(conds, " OR "), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PopularTags returns the most used tag names, usage count descending.
func PopularTags(st *store.Store, limit int) ([]string, error) {
	rows, err := st.Query(`SELECT t.name FROM tags t LEFT JOIN tagged_posts tp ON t.tag_id = tp.tag_id
		GROUP BY t.name ORDER BY COUNT(tp.post_id) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// --- site counters ---

func CountUsers(st *store.Store) (int, error) { return countRows(st, `SELECT COUNT(user_id) FROM users`) }
func CountPosts(st *store.Store) (int, error) { return countRows(st, `SELECT COUNT(post_id) FROM posts`) }
func CountTags(st *store.Store) (int, error)  { return countRows(st, `SELECT COUNT(tag_id) FROM tags`) }

func countRows(st *store.Store, query string) (int, error) {
	var n int
	err := st.QueryRow(query).Scan(&n)
	return n, err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
