package extraction

import (
	"strings"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
)

// Strategy is the common contract all extraction strategies implement. A nil
// result is a miss; a non-nil result is structurally complete.
type Strategy interface {
	Name() string
	Extract(transcript string) *Result
}

// Fixed confidences assigned by the orchestrator when a fallback wins.
const (
	naturalConfidence    = 0.6
	structuredConfidence = 0.8

	// replaceThreshold gates step two of the fallthrough: an advanced
	// result below it is discarded wholesale when the natural fallback
	// succeeds. Replacement, not merge: a weak advanced result may have
	// captured a field the fallback missed, and that field is lost. Kept
	// for compatibility; a merge would likely be the better behavior.
	replaceThreshold = 0.5
)

// Engine is the public entry point of the extraction pipeline. It is
// stateless across calls and safe for concurrent use.
type Engine struct {
	log        logger.Logger
	advanced   *advancedStrategy
	natural    *naturalStrategy
	structured *structuredStrategy
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{
		log:        log.WithFields(map[string]interface{}{"component": "extraction"}),
		advanced:   newAdvancedStrategy(log),
		natural:    newNaturalStrategy(log),
		structured: newStructuredStrategy(),
	}
}

// Extract runs the strategies in priority order over the transcript and
// always returns a well-formed result: never nil, never a panic, bounded by
// the input length. Total failure is reported through the result details,
// not through an error.
func (e *Engine) Extract(transcript string) *Result {
	if strings.TrimSpace(transcript) == "" {
		return newDegenerateResult(map[string]interface{}{
			"error": "invalid/empty input",
		})
	}

	var result *Result

	if r := e.advanced.Extract(transcript); r != nil {
		result = r
	}

	// A successful natural run replaces a weak advanced result entirely.
	if result == nil || result.Confidence < replaceThreshold {
		if r := e.natural.Extract(transcript); r != nil {
			r.Confidence = naturalConfidence
			r.Details["method"] = "standard_natural"
			result = r
		}
	}

	if result == nil {
		if r := e.structured.Extract(transcript); r != nil {
			r.Confidence = structuredConfidence
			r.Details["method"] = "structured_format"
			result = r
		}
	}

	if result == nil {
		return newDegenerateResult(map[string]interface{}{
			"error": "no strategy produced a result",
			"attempted_methods": []string{
				e.advanced.Name(), e.natural.Name(), e.structured.Name(),
			},
		})
	}

	// Merge pass: an explicit tag backfills whatever gaps the winning
	// strategy left, regardless of which strategy won.
	if fields := e.structured.Fields(transcript); fields != nil {
		applyStructuredFields(result, fields)
	}

	e.log.Debug("transcript extracted", map[string]interface{}{
		"method":     result.Details["method"],
		"confidence": result.Confidence,
		"type":       string(result.Type),
		"hasName":    result.Name != nil,
		"hasPhone":   result.Phone != nil,
		"hasAddress": result.Address != nil,
	})
	return result
}
