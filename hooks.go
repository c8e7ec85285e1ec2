package persuader

import "context"

// Hook events. Hooks observe the pipeline; they cannot alter its behavior
// and should not block.

// BeforeAttemptEvent fires before each provider call.
type BeforeAttemptEvent struct {
	Request *Request
	Index   int
	Prompt  string
}

// AfterAttemptEvent fires after each attempt completes, including failed
// ones.
type AfterAttemptEvent struct {
	Request *Request
	Attempt *Attempt
}

// ValidationFailureEvent fires when a decoded response fails the schema.
type ValidationFailureEvent struct {
	Request *Request
	Attempt *Attempt
	Errors  []*FieldError
}

// EnhancementRoundEvent fires after each improvement round.
type EnhancementRoundEvent struct {
	Request        *Request
	Round          int
	Accepted       bool
	BaselineScore  float64
	CandidateScore float64
}

// ErrorEvent fires when a provider or session error occurs.
type ErrorEvent struct {
	Request *Request
	Err     error
}

// BeforeAttemptHook is implemented by hooks that observe attempt starts.
type BeforeAttemptHook interface {
	OnBeforeAttempt(ctx context.Context, event BeforeAttemptEvent)
}

// AfterAttemptHook is implemented by hooks that observe attempt completion.
type AfterAttemptHook interface {
	OnAfterAttempt(ctx context.Context, event AfterAttemptEvent)
}

// ValidationFailureHook is implemented by hooks that observe schema
// failures.
type ValidationFailureHook interface {
	OnValidationFailure(ctx context.Context, event ValidationFailureEvent)
}

// EnhancementRoundHook is implemented by hooks that observe improvement
// rounds.
type EnhancementRoundHook interface {
	OnEnhancementRound(ctx context.Context, event EnhancementRoundEvent)
}

// ErrorHook is implemented by hooks that observe provider/session errors.
type ErrorHook interface {
	OnError(ctx context.Context, event ErrorEvent)
}

// HookRegistry holds registered hooks and dispatches events in
// registration order. A hook may implement any combination of the hook
// interfaces; Register sorts it into every slot it satisfies.
type HookRegistry struct {
	beforeAttempt     []BeforeAttemptHook
	afterAttempt      []AfterAttemptHook
	validationFailure []ValidationFailureHook
	enhancementRound  []EnhancementRoundHook
	errors            []ErrorHook
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{}
}

// Register adds a hook to every slot whose interface it implements.
func (r *HookRegistry) Register(hook any) {
	if h, ok := hook.(BeforeAttemptHook); ok {
		r.beforeAttempt = append(r.beforeAttempt, h)
	}
	if h, ok := hook.(AfterAttemptHook); ok {
		r.afterAttempt = append(r.afterAttempt, h)
	}
	if h, ok := hook.(ValidationFailureHook); ok {
		r.validationFailure = append(r.validationFailure, h)
	}
	if h, ok := hook.(EnhancementRoundHook); ok {
		r.enhancementRound = append(r.enhancementRound, h)
	}
	if h, ok := hook.(ErrorHook); ok {
		r.errors = append(r.errors, h)
	}
}

func (r *HookRegistry) fireBeforeAttempt(ctx context.Context, event BeforeAttemptEvent) {
	for _, h := range r.beforeAttempt {
		h.OnBeforeAttempt(ctx, event)
	}
}

func (r *HookRegistry) fireAfterAttempt(ctx context.Context, event AfterAttemptEvent) {
	for _, h := range r.afterAttempt {
		h.OnAfterAttempt(ctx, event)
	}
}

func (r *HookRegistry) fireValidationFailure(ctx context.Context, event ValidationFailureEvent) {
	for _, h := range r.validationFailure {
		h.OnValidationFailure(ctx, event)
	}
}

func (r *HookRegistry) fireEnhancementRound(ctx context.Context, event EnhancementRoundEvent) {
	for _, h := range r.enhancementRound {
		h.OnEnhancementRound(ctx, event)
	}
}

func (r *HookRegistry) fireError(ctx context.Context, event ErrorEvent) {
	for _, h := range r.errors {
		h.OnError(ctx, event)
	}
}
