package notification

// Sink is a device-level push channel. Delivery is best effort; callers
// log and swallow failures rather than retrying.
type Sink interface {
	Show(recipientID, title, body string) error
}

// NoopSink drops every push. Used in headless and test environments
// where no push capability exists.
type NoopSink struct{}

func (NoopSink) Show(string, string, string) error { return nil }
