package notify

// Notify pushes a short message about an updated name.
type Notify interface {
	Webhook(title string, content string) error
}
