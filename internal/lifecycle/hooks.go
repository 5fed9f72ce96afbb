package lifecycle

import "context"

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// CancelHook wraps a context cancel func so background loops stop during shutdown.
func CancelHook(name string, cancel context.CancelFunc) Hook {
	return Hook{
		Name: name,
		Fn: func(context.Context) error {
			cancel()
			return nil
		},
	}
}
