package interfaces

import "context"

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier delivers user-facing notifications on a best-effort basis
type Notifier interface {
	// RequestPermission reports whether notifications can be delivered
	RequestPermission(ctx context.Context) Permission

	// Notify sends one notification
	Notify(ctx context.Context, title, body string) error
}
