package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// IsValid checks if the role is a known value
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleModel
}

// Turn is one message in a conversation. Immutable once appended to a
// session's history.
type Turn struct {
	Role Role
	Text string
}

// UserTurn creates a user-authored turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// ModelTurn creates a model-authored turn.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Text: text}
}

// ValidHistory reports whether turns form a well-ordered conversation:
// strictly alternating, starting with a user turn. An empty history is valid.
func ValidHistory(turns []Turn) bool {
	for i, t := range turns {
		if !t.Role.IsValid() {
			return false
		}
		if i%2 == 0 && t.Role != RoleUser {
			return false
		}
		if i%2 == 1 && t.Role != RoleModel {
			return false
		}
	}
	return true
}
