package push

import "context"

// Client defines an interface for pushing short reminder texts to a user's
// linked chat. This keeps the application logic decoupled from the specific
// bot library; delivery is best-effort, exactly like email.
type Client interface {
	SendReminder(ctx context.Context, chatID int64, text string) error
}
