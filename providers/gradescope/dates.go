package gradescope

import (
	"fmt"
	"strings"
	"time"
)

// ParseDueDate parses Gradescope's compact due-date format, e.g.
// "OCT 25 AT 11:59PM". The string carries no year, so the current
// calendar year is assumed. Returns nil for anything that does not
// parse; a nil due date excludes the item from import.
func ParseDueDate(raw string) *time.Time {
	s := strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")
	if s == "" {
		return nil
	}

	// Drop the "AT" separator between day and time.
	s = strings.ToUpper(s)
	s = strings.Replace(s, " AT ", " ", 1)

	parts := strings.SplitN(s, " ", 3)
	if len(parts) != 3 || len(parts[0]) != 3 {
		return nil
	}

	// time.Parse wants "Oct", the site renders "OCT".
	month := parts[0][:1] + strings.ToLower(parts[0][1:])
	candidate := fmt.Sprintf("%s %s %s %d", month, parts[1], parts[2], time.Now().Year())

	t, err := time.Parse("Jan 2 3:04PM 2006", candidate)
	if err != nil {
		return nil
	}
	return &t
}
