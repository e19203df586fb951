package health

import (
	"context"
	"errors"
)

// ErrStartupUnhealthy is returned when dependencies never become healthy at startup.
var ErrStartupUnhealthy = errors.New("startup aborted: dependencies not healthy")

// HealthPinger can be implemented by components to expose a specialized
// health check. HealthPing must return nil when the component is healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
