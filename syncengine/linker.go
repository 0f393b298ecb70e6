package syncengine

import (
	"strings"

	"studysync/models"
)

// Normalize lowercases and strips everything that is not a letter or
// digit. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LinkCourse maps an externally reported course to a locally tracked
// one. Candidates are checked in slice order and the first match wins:
// either normalized code is a substring of the other, or the normalized
// names are equal. Returns 0 when nothing matches; the assignment is
// still imported, just unlinked, and linking is retried on every sync.
func LinkCourse(externalCode, externalName string, candidates []models.Course) uint {
	extCode := Normalize(externalCode)
	extName := Normalize(externalName)

	for _, c := range candidates {
		code := Normalize(c.Code)
		name := Normalize(c.Name)

		if code != "" && extCode != "" &&
			(strings.Contains(extCode, code) || strings.Contains(code, extCode)) {
			return c.ID
		}
		if name != "" && name == extName {
			return c.ID
		}
	}
	return 0
}
