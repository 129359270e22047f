package adapter

import "context"

type Notification struct {
	Recipient string
	Subject   string
	Content   string // HTML body
	ImageURL  string // optional
}

// NotifierAdapter delivers the finished reflection to the owner. Best-effort:
// the durable artifact is already saved before this is called.
type NotifierAdapter interface {
	Send(ctx context.Context, n Notification) error
}
