package ai

import (
	"context"
	"fmt"

	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// Disabled stands in for the invoker when no generation credentials are
// configured: the rest of the service keeps running, sends fail cleanly.
type Disabled struct{}

// Generate always fails.
func (Disabled) Generate(context.Context, string, []chat.Turn) (string, error) {
	return "", fmt.Errorf("generation backend not configured")
}
