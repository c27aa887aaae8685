package repository

// Subscription is a live listener on the store. Stop releases it and waits
// until no further callbacks run; it must not be called from the callback.
type Subscription interface {
	Stop()
}
