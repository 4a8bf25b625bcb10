package ports

import "context"

type HealthProbe interface {
	Probe(ctx context.Context) (bool, error)
}
