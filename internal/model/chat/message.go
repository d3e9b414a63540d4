package chat

import "time"

// Role identifies who authored a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// GenRole is the turn vocabulary of the generation service.
type GenRole string

const (
	GenRoleUser  GenRole = "user"
	GenRoleModel GenRole = "model"
)

// GenRole maps a persisted role onto the generation vocabulary. The
// mapping is total: anything that is not an assistant turn reaches the
// model as user input.
func (r Role) GenRole() GenRole {
	if r == RoleAssistant {
		return GenRoleModel
	}
	return GenRoleUser
}

// Message is one persisted conversation row. Rows are append-only:
// after creation only an explicit delete removes them, nothing mutates them.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ModelTag  string    `json:"model_tag"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is a single role-tagged entry of the context window handed to
// the generation service.
type Turn struct {
	Role GenRole
	Text string
}
