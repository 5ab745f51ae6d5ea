package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/studiobot/core/logger"
)

// Seeder loads reference data once storage is ready. Seed reports how many
// records it wrote; zero means the data was already there.
type Seeder interface {
	Name() string
	Seed(ctx context.Context) (int, error)
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context) (int, error)
}

// Name returns the seeder label used in logs.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context) (int, error) {
	return f.Fn(ctx)
}

// RunSeeders runs seeders in order and stops at the first failure.
func RunSeeders(ctx context.Context, seeders ...Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		n, err := s.Seed(ctx)
		if err != nil {
			logger.SEED.Error("seed failed",
				slog.String("event", "seed.run"),
				slog.String("seeder", s.Name()),
				slog.String("status", "fail"),
				logger.ErrAttr(err),
			)
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		status := "ok"
		if n == 0 {
			status = "skip"
		}
		logger.SEED.Info("seed done",
			slog.String("event", "seed.run"),
			slog.String("seeder", s.Name()),
			slog.String("status", status),
			slog.Int("rows", n),
			logger.TookAttr(start),
		)
	}
	return nil
}
