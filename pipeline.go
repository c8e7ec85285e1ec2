package persuader

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// CostRate is the per-1K-token pricing used for run cost estimation.
type CostRate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Config holds pipeline configuration.
type Config struct {
	// Retry tunes failure pacing. See RetryConfig.
	Retry RetryConfig

	// AttemptTimeout bounds each provider call. 0 disables the per-call
	// deadline; the caller's context still applies.
	AttemptTimeout time.Duration

	// Suggestions computes enum near-matches. Nil picks the default
	// engine.
	Suggestions *SuggestionEngine

	// CostRates maps model name to pricing for cost estimation. Unknown
	// models cost 0.
	CostRates map[string]CostRate

	// Logger receives structured run logs. Nil means silent.
	Logger *slog.Logger

	// Sleep applies retry pacing. Nil uses a context-aware sleep. Tests
	// inject a no-op to skip real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns a config with default retry pacing and suggestion
// bounds, a 2 minute per-attempt timeout, and silent logging.
func DefaultConfig() Config {
	return Config{
		Retry:          DefaultRetryConfig(),
		AttemptTimeout: 2 * time.Minute,
		Suggestions:    DefaultSuggestionEngine(),
	}
}

// Pipeline drives the validation-driven retry loop. All collaborators are
// constructor-injected; the provider is an interchangeable strategy.
//
// A single Persuade call runs its attempts strictly sequentially: the
// provider's session cursor is a single mutable conversation position that
// must not be shared across concurrent calls. Independent runs on
// independent sessions may execute concurrently.
type Pipeline struct {
	provider    Provider
	coordinator *Coordinator
	prompts     *PromptBuilder
	validator   *Validator
	retry       *RetryController
	hooks       *HookRegistry
	logger      *slog.Logger
	config      Config
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline over the given provider.
func New(provider Provider, config Config) *Pipeline {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	suggestions := config.Suggestions
	if suggestions == nil {
		suggestions = DefaultSuggestionEngine()
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Pipeline{
		provider:    provider,
		coordinator: NewCoordinator(provider, logger),
		prompts:     NewPromptBuilder(),
		validator:   NewValidator(suggestions),
		retry:       NewRetryController(config.Retry),
		hooks:       NewHookRegistry(),
		logger:      logger,
		config:      config,
		sleep:       sleep,
	}
}

// WithCoordinator replaces the pipeline's session coordinator, for sharing
// one coordinator across pipelines. Returns the pipeline for chaining.
func (p *Pipeline) WithCoordinator(c *Coordinator) *Pipeline {
	p.coordinator = c
	return p
}

// Coordinator returns the session coordinator, for explicit session
// management (InitSession, Preload, SessionMetrics, DestroySession).
func (p *Pipeline) Coordinator() *Coordinator {
	return p.coordinator
}

// RegisterHook adds an observer hook. The hook may implement any
// combination of the hook interfaces. Returns the pipeline for chaining.
func (p *Pipeline) RegisterHook(hook any) *Pipeline {
	p.hooks.Register(hook)
	return p
}

// Persuade runs the attempt loop for one request and produces exactly one
// Result. A non-nil error is returned only for configuration problems
// detected before any provider call; every run that reaches the provider
// reports its disposition through the Result, with FailureReason
// distinguishing exhausted retries (re-invocation may help) from fatal
// errors (it will not).
func (p *Pipeline) Persuade(ctx context.Context, req *Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	maxAttempts := req.Retries + 1
	run := newAssembler(req.SessionID)

	p.logger.Info("pipeline run started",
		"session_id", req.SessionID,
		"model", req.Model,
		"retries", req.Retries,
		"enhancement_rounds", req.Enhancement.Rounds,
	)

	prompt := p.prompts.Initial(req)
	var lastErrors []*FieldError

	for idx := 0; idx < maxAttempts; idx++ {
		if err := ctx.Err(); err != nil {
			return p.finishFatal(ctx, req, run, err), nil
		}

		p.hooks.fireBeforeAttempt(ctx, BeforeAttemptEvent{Request: req, Index: idx, Prompt: prompt})

		start := time.Now()
		resp, err := p.send(ctx, req.SessionID, prompt, req.sendOptions())

		attempt := &Attempt{
			Index:     idx,
			Prompt:    prompt,
			Timestamp: start,
		}

		if err != nil {
			attempt.Err = err
			attempt.Duration = time.Since(start)
			run.add(attempt)
			p.hooks.fireError(ctx, ErrorEvent{Request: req, Err: err})
			p.hooks.fireAfterAttempt(ctx, AfterAttemptEvent{Request: req, Attempt: attempt})

			kind := Classify(err)
			p.logger.Warn("attempt failed",
				"attempt", idx,
				"error_kind", string(kind),
				"error", err.Error(),
			)

			if kind.Fatal() {
				return p.finishFatal(ctx, req, run, err), nil
			}
			if !p.retry.ShouldRetry(idx, maxAttempts, err) {
				if kind.Retryable() {
					// Budget ran out on a transient fault; a later
					// re-invocation is worthwhile.
					return p.finishExhausted(ctx, req, run, lastErrors), nil
				}
				return p.finishFatal(ctx, req, run, err), nil
			}

			if serr := p.pace(ctx, idx+1, err); serr != nil {
				return p.finishFatal(ctx, req, run, serr), nil
			}
			// Transient failure: resend the same prompt.
			continue
		}

		attempt.RawResponse = resp.Content
		attempt.Usage = resp.Usage

		value, fieldErrs := p.validator.Validate(req.Schema, resp.Content)
		attempt.Duration = time.Since(start)

		if len(fieldErrs) == 0 {
			run.add(attempt)
			p.hooks.fireAfterAttempt(ctx, AfterAttemptEvent{Request: req, Attempt: attempt})
			p.logger.Info("attempt validated", "attempt", idx, "duration", attempt.Duration)

			baseline := &Candidate{Value: value, Raw: resp.Content}
			final := p.enhance(ctx, req, run, baseline)
			return p.finishSuccess(ctx, req, run, final), nil
		}

		attempt.Errors = fieldErrs
		run.add(attempt)
		lastErrors = fieldErrs
		p.hooks.fireValidationFailure(ctx, ValidationFailureEvent{Request: req, Attempt: attempt, Errors: fieldErrs})
		p.hooks.fireAfterAttempt(ctx, AfterAttemptEvent{Request: req, Attempt: attempt})
		p.logger.Info("attempt rejected by schema", "attempt", idx, "field_errors", len(fieldErrs))

		if !p.retry.ShouldRetry(idx, maxAttempts, nil) {
			return p.finishExhausted(ctx, req, run, lastErrors), nil
		}
		if serr := p.pace(ctx, idx+1, nil); serr != nil {
			return p.finishFatal(ctx, req, run, serr), nil
		}

		// Corrective prompts reference only the immediately preceding
		// attempt's errors, keeping prompt growth bounded.
		prompt = p.prompts.Corrective(req, lastErrors)
	}

	return p.finishExhausted(ctx, req, run, lastErrors), nil
}

// enhance runs the bounded improvement rounds after a baseline success.
// The baseline is never put at risk: only candidates that validate and
// score high enough replace it; on any fatal fault the current best is
// returned as-is.
func (p *Pipeline) enhance(ctx context.Context, req *Request, run *assembler, baseline *Candidate) *Candidate {
	rounds := req.Enhancement.Rounds
	if rounds <= 0 {
		return baseline
	}

	evaluator := defaultEvaluator(req)
	baselineScore := evaluator.Evaluate(baseline, baseline)
	best, bestScore := baseline, baselineScore

	for round := 1; round <= rounds; round++ {
		if ctx.Err() != nil {
			break
		}

		resp, err := p.send(ctx, req.SessionID, p.prompts.Enhancement(req, best.Raw), req.sendOptions())
		run.noteRound()
		if err != nil {
			p.hooks.fireError(ctx, ErrorEvent{Request: req, Err: err})
			p.logger.Warn("enhancement round failed", "round", round, "error", err.Error())
			if Classify(err).Fatal() {
				break
			}
			continue
		}
		run.addUsage(resp.Usage)

		value, fieldErrs := p.validator.Validate(req.Schema, resp.Content)
		if len(fieldErrs) > 0 {
			p.hooks.fireEnhancementRound(ctx, EnhancementRoundEvent{
				Request:       req,
				Round:         round,
				Accepted:      false,
				BaselineScore: bestScore,
			})
			p.logger.Info("enhancement candidate rejected by schema", "round", round)
			continue
		}

		candidate := &Candidate{Value: value, Raw: resp.Content}
		score := evaluator.Evaluate(baseline, candidate)
		improvement := score - bestScore
		accepted := improvement > 0 && improvement >= req.Enhancement.MinImprovement
		if accepted {
			best, bestScore = candidate, score
		}

		p.hooks.fireEnhancementRound(ctx, EnhancementRoundEvent{
			Request:        req,
			Round:          round,
			Accepted:       accepted,
			BaselineScore:  baselineScore,
			CandidateScore: score,
		})
		p.logger.Info("enhancement round completed",
			"round", round,
			"accepted", accepted,
			"score", score,
			"best_score", bestScore,
		)
	}

	return best
}

// send executes one provider call under the per-attempt deadline,
// normalizing deadline hits into tagged timeout errors.
func (p *Pipeline) send(ctx context.Context, sessionID, prompt string, opts SendOptions) (*Response, error) {
	callCtx := ctx
	if p.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.config.AttemptTimeout)
		defer cancel()
	}

	resp, err := p.provider.SendPrompt(callCtx, sessionID, prompt, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &ProviderError{
				Provider: p.provider.Name(),
				Kind:     ErrKindTimeout,
				Message:  "attempt deadline exceeded",
				Cause:    err,
			}
		}
		return nil, err
	}
	if resp == nil {
		return nil, &ProviderError{
			Provider: p.provider.Name(),
			Kind:     ErrKindUnknown,
			Message:  "provider returned nil response",
		}
	}
	return resp, nil
}

// pace applies the retry delay before the given 1-based retry.
func (p *Pipeline) pace(ctx context.Context, retry int, err error) error {
	delay := p.retry.PacingDelay(retry, err)
	if delay <= 0 {
		return nil
	}
	return p.sleep(ctx, delay)
}

func (p *Pipeline) finishSuccess(ctx context.Context, req *Request, run *assembler, cand *Candidate) *Result {
	res := run.success(cand)
	p.finish(ctx, req, res)
	return res
}

func (p *Pipeline) finishExhausted(ctx context.Context, req *Request, run *assembler, errs []*FieldError) *Result {
	res := run.failExhausted(errs)
	p.finish(ctx, req, res)
	return res
}

func (p *Pipeline) finishFatal(ctx context.Context, req *Request, run *assembler, err error) *Result {
	res := run.failFatal(err)
	p.finish(ctx, req, res)
	return res
}

func (p *Pipeline) finish(_ context.Context, req *Request, res *Result) {
	res.Metadata.EstimatedCost = p.estimateCost(req.Model, res.Metadata.TotalUsage)

	if req.SessionID != "" && p.coordinator != nil {
		p.coordinator.recordRun(req.SessionID, res)
	}

	p.logger.Info("pipeline run finished",
		"outcome", string(res.Outcome),
		"attempts", len(res.Attempts),
		"failure_reason", string(res.Metadata.FailureReason),
		"duration", res.Metadata.Duration,
		"total_tokens", res.Metadata.TotalUsage.TotalTokens,
	)
}

func (p *Pipeline) estimateCost(model string, usage TokenUsage) float64 {
	rate, ok := p.config.CostRates[model]
	if !ok {
		return 0
	}
	return rate.InputPer1K*float64(usage.InputTokens)/1000 +
		rate.OutputPer1K*float64(usage.OutputTokens)/1000
}

// sleepContext sleeps for d unless the context is canceled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
