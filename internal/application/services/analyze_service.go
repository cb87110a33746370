package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/application/ports"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	domainservices "github.com/tuneforge/tuneforge/internal/domain/services"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// matchLookup is implemented by resolvers that can say how a query matched.
type matchLookup interface {
	Lookup(query string) (Match, error)
}

// AnalyzeService orchestrates one analysis: resolve the machine, plan
// suggestions, clamp the aggregate and build the slicer diff.
type AnalyzeService struct {
	machines ports.MachineResolver
	clamp    *domainservices.SafetyClamp
	deriver  *domainservices.BaselineDeriver
	exporter *domainservices.SlicerExporter
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
	version  string
}

// AnalyzeOption configures an AnalyzeService.
type AnalyzeOption func(*AnalyzeService)

// WithIDGenerator replaces the UUID generator used for analysis ids and image keys.
func WithIDGenerator(gen func() string) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.newID = gen
	}
}

// WithClock replaces the clock used for response metadata.
func WithClock(now func() time.Time) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.now = now
	}
}

// WithVersion sets the version string reported in responses.
func WithVersion(version string) AnalyzeOption {
	return func(s *AnalyzeService) {
		s.version = version
	}
}

// NewAnalyzeService creates a new analyze service.
func NewAnalyzeService(machines ports.MachineResolver, logger *slog.Logger, opts ...AnalyzeOption) *AnalyzeService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnalyzeService{
		machines: machines,
		clamp:    domainservices.NewSafetyClamp(),
		deriver:  domainservices.NewBaselineDeriver(),
		exporter: domainservices.NewSlicerExporter(),
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze validates req and produces suggestions for its predictions.
// A machine that cannot be resolved yields an entities.MachineNotFoundError.
func (s *AnalyzeService) Analyze(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := s.now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	experience, _ := values.NewExperience(req.Experience)
	slicer, _ := values.NewSlicer(req.Slicer)

	machine, matchedBy, err := s.resolve(req.MachineID)
	if err != nil {
		return nil, err
	}

	planner := domainservices.NewSuggestionPlanner(machine, req.Material, experience,
		domainservices.WithSafetyClamp(s.clamp),
		domainservices.WithBaselineDeriver(s.deriver))
	plan := planner.Run(req.Predictions)

	imageKey := req.ImageKey
	if imageKey == "" {
		imageKey = s.newID()
	}

	predictions := make([]entities.Prediction, len(req.Predictions))
	copy(predictions, req.Predictions)

	resp := &dto.AnalyzeResponse{
		AnalysisID:        s.newID(),
		ImageKey:          imageKey,
		Version:           s.version,
		Machine:           machine.Summary(),
		Experience:        planner.Experience(),
		Material:          planner.Material(),
		Predictions:       predictions,
		Suggestions:       plan.Suggestions,
		Applied:           plan.Applied,
		SlicerProfileDiff: s.exporter.FromSuggestions(plan.Suggestions, slicer, req.BaseProfile),
		LowConfidence:     plan.LowConfidence,
		Metadata: dto.ResponseMetadata{
			ProcessedAt: start,
			Duration:    s.now().Sub(start),
			MatchedBy:   matchedBy,
		},
	}

	s.logger.Info("analysis complete",
		"analysis_id", resp.AnalysisID,
		"machine", machine.ID,
		"matched_by", matchedBy,
		"experience", experience,
		"suggestions", len(resp.Suggestions),
		"low_confidence", resp.LowConfidence,
		"clamped", resp.Applied.ClampedToMachineLimits)
	return resp, nil
}

// Clamp bounds an arbitrary parameter set to a machine.
func (s *AnalyzeService) Clamp(ctx context.Context, req dto.ClampRequest) (*dto.ClampResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	experience, _ := values.NewExperience(req.Experience)

	machine, _, err := s.resolve(req.MachineID)
	if err != nil {
		return nil, err
	}

	return &dto.ClampResponse{
		Machine: machine.Summary(),
		Applied: s.clamp.ClampToMachine(machine, req.Parameters, experience),
	}, nil
}

// Export renders a parameter set as a slicer profile diff.
func (s *AnalyzeService) Export(req dto.ExportRequest) (domainservices.ProfileDiff, error) {
	if err := req.Validate(); err != nil {
		return domainservices.ProfileDiff{}, err
	}
	slicer, _ := values.NewSlicer(req.Slicer)
	return s.exporter.FromParameters(req.Parameters, slicer, req.BaseProfile), nil
}

func (s *AnalyzeService) resolve(query string) (*entities.MachineProfile, string, error) {
	if lookup, ok := s.machines.(matchLookup); ok {
		match, err := lookup.Lookup(query)
		if err != nil {
			return nil, "", err
		}
		if match.Kind == MatchFuzzy {
			s.logger.Debug("machine resolved fuzzily", "query", query, "key", match.Key, "score", match.Score)
		}
		return match.Machine, string(match.Kind), nil
	}

	machine, err := s.machines.Resolve(query)
	if err != nil {
		return nil, "", err
	}
	return machine, "", nil
}
