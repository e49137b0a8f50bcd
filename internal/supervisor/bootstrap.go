// Resonare - Music Similarity Recommendation Service
// Copyright 2026 Arlo Finch (arlofinch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arlofinch/resonare

package supervisor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/arlofinch/resonare/internal/catalog"
	"github.com/arlofinch/resonare/internal/logging"
	"github.com/arlofinch/resonare/internal/recommend"
)

// CatalogSource is the catalog surface the bootstrap needs.
// *catalog.Store satisfies it.
type CatalogSource interface {
	ImportCSV(ctx context.Context, path string) (*catalog.ImportResult, error)
	ListTracks(ctx context.Context) ([]recommend.Track, error)
}

// Trainer is the model surface the bootstrap needs.
type Trainer interface {
	Train(ctx context.Context, tracks []recommend.Track, opts recommend.TrainOptions) error
}

// BootstrapService performs one-time startup work under supervision:
// importing a seed CSV into the catalog and training the initial model
// from the catalog contents. After the work completes (or if nothing is
// configured) it idles until shutdown, so a supervisor restart does not
// re-run the import.
type BootstrapService struct {
	source  CatalogSource
	trainer Trainer
	csvPath string
	train   bool
	done    atomic.Bool
	logger  zerolog.Logger
}

// NewBootstrapService creates the startup service. csvPath may be empty
// to skip the import; train=false skips initial training.
func NewBootstrapService(source CatalogSource, trainer Trainer, csvPath string, train bool) *BootstrapService {
	return &BootstrapService{
		source:  source,
		trainer: trainer,
		csvPath: csvPath,
		train:   train,
		logger:  logging.WithComponent("bootstrap"),
	}
}

// Serve implements suture.Service.
func (b *BootstrapService) Serve(ctx context.Context) error {
	if b.done.CompareAndSwap(false, true) {
		if err := b.run(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Allow the supervisor to retry a failed bootstrap.
			b.done.Store(false)
			return err
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

func (b *BootstrapService) run(ctx context.Context) error {
	if b.csvPath != "" {
		b.logger.Info().Str("path", b.csvPath).Msg("importing catalog seed CSV")
		result, err := b.source.ImportCSV(ctx, b.csvPath)
		if err != nil {
			return fmt.Errorf("csv import: %w", err)
		}
		b.logger.Info().
			Int("imported", result.Imported).
			Int("skipped", result.Skipped).
			Msg("catalog seed import complete")
	}

	if !b.train {
		return nil
	}

	tracks, err := b.source.ListTracks(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(tracks) == 0 {
		b.logger.Warn().Msg("catalog is empty, skipping initial training")
		return nil
	}

	if err := b.trainer.Train(ctx, tracks, recommend.TrainOptions{}); err != nil {
		return fmt.Errorf("initial training: %w", err)
	}
	b.logger.Info().Int("tracks", len(tracks)).Msg("initial model trained from catalog")
	return nil
}

// String identifies the service in supervisor logs.
func (b *BootstrapService) String() string {
	return "bootstrap"
}
