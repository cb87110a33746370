package dto

import (
	"time"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/services"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// AnalyzeResponse contains the result of analyzing one print.
type AnalyzeResponse struct {
	AnalysisID        string                  `json:"analysis_id" yaml:"analysis_id"`
	ImageKey          string                  `json:"image_key" yaml:"image_key"`
	Version           string                  `json:"version" yaml:"version"`
	Machine           entities.MachineSummary `json:"machine" yaml:"machine"`
	Experience        values.Experience       `json:"experience" yaml:"experience"`
	Material          string                  `json:"material" yaml:"material"`
	Predictions       []entities.Prediction   `json:"predictions" yaml:"predictions"`
	Suggestions       []entities.Suggestion   `json:"suggestions" yaml:"suggestions"`
	Applied           entities.AppliedResult  `json:"applied" yaml:"applied"`
	SlicerProfileDiff services.ProfileDiff    `json:"slicer_profile_diff" yaml:"slicer_profile_diff"`
	LowConfidence     bool                    `json:"low_confidence" yaml:"low_confidence"`

	// Metadata is not serialized with the analysis itself.
	Metadata ResponseMetadata `json:"-" yaml:"-"`
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// ProcessedAt is when the request was processed
	ProcessedAt time.Time

	// Duration is how long the request took
	Duration time.Duration

	// MatchedBy says how the machine identifier was resolved (id, alias or fuzzy)
	MatchedBy string
}

// ClampResponse contains a parameter set bounded to one machine.
type ClampResponse struct {
	Machine entities.MachineSummary `json:"machine" yaml:"machine"`
	Applied entities.AppliedResult  `json:"applied" yaml:"applied"`
}
