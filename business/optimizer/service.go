package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"adOptimizer/business/bandit"
	"adOptimizer/business/preprocess"
	"adOptimizer/domain"
	"adOptimizer/pkg/logger"
	"adOptimizer/pkg/metrics"
)

var (
	ErrInvalidRequest = errors.New("invalid optimization request")
	ErrNoConfigStore  = errors.New("optimizer config storage is not configured")
	ErrNoAdPlatform   = errors.New("ad platform client is not configured")
)

type Output string

const (
	OutputShare  Output = "share"
	OutputStatus Output = "status"
)

func ParseOutput(s string) (Output, error) {
	switch Output(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputShare:
		return OutputShare, nil
	case OutputStatus:
		return OutputStatus, nil
	default:
		return "", fmt.Errorf("%w: unknown output %q", ErrInvalidRequest, s)
	}
}

// ---- Repository interfaces ----

type ConfigRepository interface {
	GetConfig(ctx context.Context, accountID uint) (domain.OptimizerConfig, bool, error)
	SaveConfig(ctx context.Context, cfg *domain.OptimizerConfig) error
}

type RunRepository interface {
	SaveRun(ctx context.Context, run *domain.OptimizationRun) error
	ListRuns(ctx context.Context, accountID uint, limit int) ([]domain.OptimizationRun, error)
}

// AdPlatform pushes ad statuses and returns the ads whose status changed.
type AdPlatform interface {
	UpdateStatuses(ctx context.Context, creds domain.PlatformCredentials, updates []domain.StatusUpdate) ([]domain.StatusChange, error)
}

// ---- Service ----

type Service struct {
	cfgRepo  ConfigRepository
	runRepo  RunRepository
	platform AdPlatform
	defaults Settings
	sampler  bandit.Sampler
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithSampler fixes the sampler used for every bandit, e.g. a seeded one.
func WithSampler(s bandit.Sampler) ServiceOption {
	return func(svc *Service) {
		svc.sampler = s
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) {
		svc.now = now
	}
}

func NewService(
	cfgRepo ConfigRepository,
	runRepo RunRepository,
	platform AdPlatform,
	defaults Settings,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		cfgRepo:  cfgRepo,
		runRepo:  runRepo,
		platform: platform,
		defaults: defaults,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Request struct {
	AccountID uint
	Records   []domain.RawRecord
	Weights   preprocess.Weights
	Output    Output
	// Accelerate overrides the account setting when set.
	Accelerate *bool
	// Debug adds each option's posterior to the result.
	Debug bool
}

// Optimize allocates next period's budget over the options found in the
// records. Rejected records are reported with the result; when no record
// survives preprocessing the rejections come back with
// preprocess.ErrInsufficientData.
func (s *Service) Optimize(ctx context.Context, req Request) (domain.OptimizationResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.OptimizationResult{}, fmt.Errorf("context error: %w", err)
	}
	if req.Output == "" {
		req.Output = OutputShare
	}

	settings, err := s.Settings(ctx, req.AccountID)
	if err != nil {
		return domain.OptimizationResult{}, err
	}
	accelerate := settings.Accelerate
	if req.Accelerate != nil {
		accelerate = *req.Accelerate
	}

	today := domain.Day(s.now())
	prep, err := preprocess.Process(req.Records, preprocess.Options{
		Weights: req.Weights,
		Cutoff:  settings.Bandit.Cutoff,
		Today:   today,
	})
	metrics.RejectedRecords.Add(float64(len(prep.Rejections)))
	if err != nil {
		return domain.OptimizationResult{Rejections: prep.Rejections}, err
	}

	b, err := bandit.New(len(prep.Options), settings.Bandit, s.banditOptions()...)
	if err != nil {
		return domain.OptimizationResult{}, err
	}
	if err := b.AddDailyResults(prep.Records, today); err != nil {
		logger.Error("failed to load records into bandit", "error", err)
		return domain.OptimizationResult{}, fmt.Errorf("load records: %w", err)
	}

	shares, err := b.CalculateShares(accelerate)
	if err != nil {
		logger.Error("failed to calculate shares", "error", err)
		return domain.OptimizationResult{}, fmt.Errorf("calculate shares: %w", err)
	}
	metrics.OptionsPerRequest.Observe(float64(len(prep.Options)))

	result := domain.OptimizationResult{
		Results:    buildResults(prep.Options, shares, req.Output),
		Rejections: prep.Rejections,
	}
	if req.Output == OutputShare {
		result.ChannelShares = channelShares(prep.Options, shares)
	}
	if req.Debug {
		for i, p := range b.Posteriors() {
			result.Posteriors = append(result.Posteriors, domain.Posterior{
				OptionID: i,
				Alpha:    p.Alpha,
				Beta:     p.Beta,
				Mean:     p.Mean,
			})
		}
	}

	logger.Debug("optimization",
		"trace_id", TraceIDFromContext(ctx),
		"account_id", req.AccountID,
		"options", len(prep.Options),
		"records", len(prep.Records),
		"rejected", len(prep.Rejections),
		"shape", settings.Bandit.Shape.String(),
		"accelerate", accelerate,
	)

	s.recordRun(ctx, req, settings, prep, result)
	return result, nil
}

// Compare allocates between options given directly as cumulative results,
// without dates or preprocessing.
func (s *Service) Compare(ctx context.Context, trials, successes []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(trials) != len(successes) {
		return nil, fmt.Errorf("%w: %d trials for %d successes", ErrInvalidRequest, len(trials), len(successes))
	}

	cfg := bandit.DefaultConfig()
	cfg.Memory = false
	b, err := bandit.New(len(trials), cfg, s.banditOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	for i := range trials {
		if err := b.AddResults(i, trials[i], successes[i]); err != nil {
			return nil, fmt.Errorf("%w: option %d: %v", ErrInvalidRequest, i, err)
		}
	}
	return b.CalculateShares(false)
}

func (s *Service) banditOptions() []bandit.Option {
	if s.sampler == nil {
		return nil
	}
	return []bandit.Option{bandit.WithSampler(s.sampler)}
}

func buildResults(options []domain.Option, shares []float64, output Output) []domain.OptionResult {
	status := bandit.SharesToStatus(shares)
	out := make([]domain.OptionResult, len(options))
	for i, opt := range options {
		out[i] = domain.OptionResult{Option: opt}
		if output == OutputStatus {
			out[i].Status = &status[i]
		} else {
			out[i].Share = &shares[i]
		}
	}
	return out
}

// channelShares totals shares per channel. Nil when options carry no channel.
func channelShares(options []domain.Option, shares []float64) map[string]float64 {
	var totals map[string]float64
	for i, opt := range options {
		ch := opt.Get(preprocess.FieldChannel)
		if ch == "" {
			continue
		}
		if totals == nil {
			totals = make(map[string]float64)
		}
		totals[ch] += shares[i]
	}
	return totals
}

// Runs lists an account's recent optimization runs.
func (s *Service) Runs(ctx context.Context, accountID uint, limit int) ([]domain.OptimizationRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.runRepo == nil {
		return []domain.OptimizationRun{}, nil
	}

	runs, err := s.runRepo.ListRuns(ctx, accountID, limit)
	if err != nil {
		logger.Error("failed to list optimization runs", "account_id", accountID, "error", err)
		return nil, err
	}
	return runs, nil
}

// recordRun stores the run for later analysis. Failures never fail the request.
func (s *Service) recordRun(ctx context.Context, req Request, settings Settings, prep preprocess.Result, result domain.OptimizationResult) {
	if s.runRepo == nil || req.AccountID == 0 {
		return
	}

	snapshot := make(map[string]any, len(result.Results))
	for _, r := range result.Results {
		key := r.Get(preprocess.FieldAdID)
		if ch := r.Get(preprocess.FieldChannel); ch != "" {
			key = ch + ":" + key
		}
		switch {
		case r.Share != nil:
			snapshot[key] = *r.Share
		case r.Status != nil:
			snapshot[key] = r.StatusLabel()
		}
	}

	run := &domain.OptimizationRun{
		AccountID:  req.AccountID,
		TraceID:    TraceIDFromContext(ctx),
		NumOptions: len(prep.Options),
		NumRecords: len(prep.Records),
		Rejected:   len(prep.Rejections),
		Shape:      settings.Bandit.Shape.String(),
		Cutoff:     settings.Bandit.Cutoff,
		Output:     string(req.Output),
		Results:    datatypes.JSONMap(snapshot),
	}
	if err := s.runRepo.SaveRun(ctx, run); err != nil {
		logger.Warn("failed to record optimization run", "account_id", req.AccountID, "error", err)
	}
}
