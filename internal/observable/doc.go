// Package observable provides a small generic subject type used for
// reactive state. Subscribers are notified synchronously, in the order in
// which they subscribed, on the goroutine that publishes.
package observable
