// Package dto contains data transfer objects for application layer use cases.
package dto

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	apperrors "github.com/tuneforge/tuneforge/internal/application/errors"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// MinimumClientVersion is the oldest client app version whose requests are accepted.
const MinimumClientVersion = "0.2.0"

// AnalyzeRequest encapsulates all inputs needed to analyze one print.
type AnalyzeRequest struct {
	// MachineID is an id, alias or approximate machine name.
	MachineID  string
	Experience string
	Material   string
	// AppVersion is the client's semantic version, if it sent one.
	AppVersion string
	// ImageKey identifies the analyzed image. Generated when empty.
	ImageKey    string
	Predictions []entities.Prediction
	Slicer      string
	// BaseProfile holds the user's current slicer values keyed by slicer key.
	BaseProfile map[string]float64
}

// Validate checks the request metadata and normalizes the predictions.
func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.MachineID) == "" {
		return apperrors.NewValidationError("machine_id", "machine identifier is required")
	}
	if _, err := values.NewExperience(r.Experience); err != nil {
		return apperrors.NewValidationError("experience", err.Error())
	}
	if _, err := values.NewSlicer(r.Slicer); err != nil {
		return apperrors.NewValidationError("slicer", err.Error())
	}
	if err := ValidateAppVersion(r.AppVersion); err != nil {
		return err
	}

	var details []string
	for i, p := range r.Predictions {
		if strings.TrimSpace(p.IssueID) == "" {
			details = append(details, fmt.Sprintf("predictions[%d]: issue_id is required", i))
		}
		if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
			details = append(details, fmt.Sprintf("predictions[%d]: confidence %v is outside [0, 1]", i, p.Confidence))
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("predictions", strings.Join(details, "; "), details...)
	}
	return validateFinite("base_profile", r.BaseProfile)
}

// ValidateAppVersion accepts an empty version or any semantic version at or
// above MinimumClientVersion, pre-releases included.
func ValidateAppVersion(version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return apperrors.NewValidationError("app_version", fmt.Sprintf("%q is not a semantic version", version))
	}
	constraint, err := semver.NewConstraint(">= " + MinimumClientVersion + "-0")
	if err != nil {
		return fmt.Errorf("invalid minimum client version: %w", err)
	}
	if !constraint.Check(v) {
		return apperrors.NewValidationError("app_version",
			fmt.Sprintf("client version %s is older than the minimum supported %s", v, MinimumClientVersion))
	}
	return nil
}

// ClampRequest asks for a raw parameter set to be bounded to a machine.
type ClampRequest struct {
	MachineID  string
	Experience string
	Parameters entities.Parameters
}

// Validate checks the experience and rejects empty or non-finite parameter sets.
func (r *ClampRequest) Validate() error {
	if _, err := values.NewExperience(r.Experience); err != nil {
		return apperrors.NewValidationError("experience", err.Error())
	}
	if len(r.Parameters) == 0 {
		return apperrors.NewValidationError("parameters", "at least one parameter is required")
	}
	return validateFinite("parameters", r.Parameters)
}

// ExportRequest asks for a parameter set to be rendered as a slicer diff.
type ExportRequest struct {
	Slicer      string
	Parameters  entities.Parameters
	BaseProfile map[string]float64
}

// Validate checks the slicer and rejects non-finite values.
func (r *ExportRequest) Validate() error {
	if _, err := values.NewSlicer(r.Slicer); err != nil {
		return apperrors.NewValidationError("slicer", err.Error())
	}
	if err := validateFinite("parameters", r.Parameters); err != nil {
		return err
	}
	return validateFinite("base_profile", r.BaseProfile)
}

// validateFinite reports every NaN or infinite value in params, in key order.
func validateFinite(field string, params map[string]float64) error {
	var details []string
	for name, value := range params {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			details = append(details, fmt.Sprintf("%s: %v is not a finite number", name, value))
		}
	}
	if len(details) == 0 {
		return nil
	}
	sort.Strings(details)
	return apperrors.NewValidationError(field, strings.Join(details, "; "), details...)
}

// PredictionsDocument is the stand-in for an upstream inference result.
type PredictionsDocument struct {
	ImageKey    string                `json:"image_key" yaml:"image_key"`
	Predictions []entities.Prediction `json:"predictions" yaml:"predictions"`
}
