package sessions

import "careassist/careassist/utils/types"

const (
	titleMaxRunes = 50
	titleEllipsis = "..."
)

// DeriveTitle returns the first 50 characters of text, plus an ellipsis when
// anything was cut.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}

func hasUserMessage(s *types.Session) bool {
	for _, m := range s.Messages {
		if m.Role == types.RoleUser {
			return true
		}
	}
	return false
}
