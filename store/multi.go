package store

import (
	"context"
	"errors"

	"github.com/zeu5/miniblocks/types"
)

// Multi records every summary to all of its recorders
type Multi []types.EpisodeRecorder

var _ types.EpisodeRecorder = Multi{}

func (m Multi) RecordEpisode(ctx context.Context, e types.EpisodeSummary) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordEpisode(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
