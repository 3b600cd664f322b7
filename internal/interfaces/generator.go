package interfaces

import "context"

// GeneratorErrorKind classifies Generator faults so callers can decide
// whether a failure is worth logging at a higher severity, without ever
// treating it as fatal to the owning job.
type GeneratorErrorKind string

const (
	GeneratorErrorTransport  GeneratorErrorKind = "transport"
	GeneratorErrorParse      GeneratorErrorKind = "parse"
	GeneratorErrorValidation GeneratorErrorKind = "validation"
	GeneratorErrorTimeout    GeneratorErrorKind = "timeout"
)

// GeneratorError wraps a Generator fault with its kind, so a worker can
// branch on its Kind field without string-matching error text.
type GeneratorError struct {
	Kind GeneratorErrorKind
	Err  error
}

func (e *GeneratorError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *GeneratorError) Unwrap() error { return e.Err }

// Generator is a stateless adapter over an external text-generation
// service. It never returns a fatal error to the caller — every failure
// is surfaced as a *GeneratorError for the worker to log and skip.
type Generator interface {
	// Generate produces one validated question for topic within
	// [minAge, maxAge]. nonce varies per call and must be folded into the
	// prompt so repeated calls within a job are not correlated.
	Generate(ctx context.Context, topic string, minAge, maxAge int, nonce uint32) (*GeneratedQuestion, error)
}

// GeneratedQuestion is the Generator's validated output, prior to Store
// insertion (which assigns ID, ContentHash, CreatedAt).
type GeneratedQuestion struct {
	Prompt  string
	Options []string
	Answer  string
}
