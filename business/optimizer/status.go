package optimizer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"adOptimizer/business/preprocess"
	"adOptimizer/domain"
	"adOptimizer/pkg/logger"
	"adOptimizer/pkg/metrics"
)

// updatableChannels are served by the Facebook Graph API. Updates without a
// channel are assumed to target Facebook.
var updatableChannels = []string{"", "facebook", "instagram"}

// StatusUpdates turns a status result into platform updates.
func StatusUpdates(results []domain.OptionResult) []domain.StatusUpdate {
	out := make([]domain.StatusUpdate, 0, len(results))
	for _, r := range results {
		if r.Status == nil {
			continue
		}
		out = append(out, domain.StatusUpdate{
			AdID:    r.Get(preprocess.FieldAdID),
			Channel: r.Get(preprocess.FieldChannel),
			Status:  r.StatusLabel(),
		})
	}
	return out
}

// ApplyStatuses pushes ad statuses to the ad platform and returns the ads
// whose status changed. Updates for channels the platform does not serve are
// skipped. When the platform fails part way, the changes it already applied
// are returned along with the error.
func (s *Service) ApplyStatuses(ctx context.Context, creds domain.PlatformCredentials, updates []domain.StatusUpdate) ([]domain.StatusChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.platform == nil {
		return nil, ErrNoAdPlatform
	}
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrInvalidRequest)
	}

	accepted := make([]domain.StatusUpdate, 0, len(updates))
	for _, u := range updates {
		u.Channel = strings.ToLower(strings.TrimSpace(u.Channel))
		u.Status = strings.ToUpper(strings.TrimSpace(u.Status))
		if u.AdID == "" {
			return nil, fmt.Errorf("%w: ad_id is required", ErrInvalidRequest)
		}
		if u.Status != domain.StatusActive && u.Status != domain.StatusPaused {
			return nil, fmt.Errorf("%w: ad %s: unknown status %q", ErrInvalidRequest, u.AdID, u.Status)
		}
		if !slices.Contains(updatableChannels, u.Channel) {
			logger.Debug("skipping status update", "ad_id", u.AdID, "channel", u.Channel)
			continue
		}
		accepted = append(accepted, u)
	}
	if len(accepted) == 0 {
		return []domain.StatusChange{}, nil
	}

	changes, err := s.platform.UpdateStatuses(ctx, creds, accepted)
	for _, c := range changes {
		metrics.StatusChanges.WithLabelValues(c.NewStatus).Inc()
	}
	if err != nil {
		logger.Error("failed to update ad statuses",
			"trace_id", TraceIDFromContext(ctx),
			"applied", len(changes),
			"error", err,
		)
		return changes, fmt.Errorf("update ad statuses: %w", err)
	}

	logger.Info("ad statuses updated",
		"trace_id", TraceIDFromContext(ctx),
		"requested", len(accepted),
		"changed", len(changes),
	)
	return changes, nil
}
