package ports

// Port: surfaces a transient, dismissible notice to the user. Background
// refresh failures go here instead of clearing displayed data.
type Notifier interface {
	Notify(message string)
}
