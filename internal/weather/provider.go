package weather

import (
	"context"
)

// Provider abstracts a current-conditions source (e.g. OpenWeatherMap).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city string) (Snapshot, error)
}
