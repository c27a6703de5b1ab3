package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across buildamp.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Pipeline
	FieldPhase     = "phase"
	FieldRunID     = "run_id"
	FieldComponent = "component"
	FieldOperation = "operation"

	// Models
	FieldModel   = "model"
	FieldField   = "field"
	FieldRole    = "role"
	FieldRawType = "raw_type"
	FieldDomain  = "domain"

	// Files and paths
	FieldFile     = "file"
	FieldPath     = "path"
	FieldDir      = "dir"
	FieldDecision = "decision"
	FieldReason   = "reason"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount     = "count"
	FieldModels    = "models"
	FieldArtifacts = "artifacts"
	FieldSkipped   = "skipped"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Orchestrator struct {
//	    log *zap.SugaredLogger
//	}
//
//	func New() *Orchestrator {
//	    return &Orchestrator{log: logger.ComponentLogger("pipeline")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// PhaseLogger returns a logger scoped to one pipeline phase.
func PhaseLogger(phase string) *zap.SugaredLogger {
	return Logger.Named("pipeline." + phase).With(FieldPhase, phase)
}
