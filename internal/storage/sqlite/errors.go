package sqlite

import "strings"

// isUniqueViolation reports whether err came from violating the jobs.id
// primary key. modernc.org/sqlite surfaces constraint failures as plain
// *sqlite.Error whose message contains "UNIQUE constraint failed"; there's
// no typed sentinel to errors.As against, so this does a substring check
// the way this stack's own FK-violation helper does for Postgres codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
