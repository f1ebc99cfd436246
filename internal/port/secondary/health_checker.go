package secondary

import "context"

// HealthChecker reports whether a backing service (Redis, a broker) is
// reachable. Checks are run concurrently by the health endpoint, each under
// its own deadline.
type HealthChecker interface {
	// Name identifies the check in the health response.
	Name() string

	// Check returns nil when the dependency is usable.
	Check(ctx context.Context) error
}
