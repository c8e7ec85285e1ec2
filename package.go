// Package persuader turns unreliable free-text LLM generation into typed,
// schema-guaranteed results by iterating provider calls and feeding structured
// validation errors back to the model as corrective instructions.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/shaneholloman/persuader"
//	    "github.com/shaneholloman/persuader/providers/langchain"
//	    "github.com/shaneholloman/persuader/schema"
//	)
//
//	func main() {
//	    // 1. Define the output contract
//	    s := schema.MustCompile(schema.Object(map[string]*schema.Property{
//	        "title":    schema.String("Short title"),
//	        "severity": schema.String("Severity level").Enum("low", "medium", "high"),
//	        "score":    schema.Number("Confidence score").Min(0).Max(1),
//	    }, "title", "severity"))
//
//	    // 2. Create a provider
//	    provider := langchain.New(llm, langchain.WithDefaultModel("gpt-4o"))
//
//	    // 3. Build the pipeline and run it
//	    p := persuader.New(provider, persuader.DefaultConfig())
//	    result, err := p.Persuade(context.Background(), &persuader.Request{
//	        Schema:  s,
//	        Context: "You extract incident metadata from reports.",
//	        Input:   reportText,
//	        Retries: 3,
//	    })
//	    if err != nil {
//	        panic(err)
//	    }
//	    fmt.Println(result.Value)
//	}
//
// # The Attempt Loop
//
// Each pipeline run makes up to Retries+1 attempts. Every attempt sends a
// prompt, decodes the raw response, and validates the decoded value against
// the schema. Validation failures never abort the run: they are translated
// into a corrective prompt that names each offending field, what was
// expected, what was received, and (for enum mismatches) the closest
// permitted values. Only fatal provider failures (authentication, invalid
// model, oversized responses) end the run early; transient failures
// (timeouts, rate limits, network faults) consume an attempt and are paced
// by exponential backoff.
//
// # Sessions
//
// A Coordinator manages provider conversation sessions so repeated runs can
// reuse a loaded context instead of resending it:
//
//	coord := p.Coordinator()
//	sess, _, err := coord.InitSession(ctx, largeContext, persuader.SessionOptions{})
//	result, err := p.Persuade(ctx, &persuader.Request{
//	    Schema:    s,
//	    Input:     input,
//	    SessionID: sess.ID,
//	})
//
// Every InitSession call mints a fresh identifier; identical context never
// silently resumes a prior session. A single session must not serve two
// concurrently in-flight requests; that discipline is the caller's.
// Independent runs on independent sessions are safe to execute in parallel.
//
// # Enhancement
//
// After a baseline success, optional enhancement rounds ask the model for an
// improved answer. A round's candidate replaces the baseline only when it
// passes the schema and scores at least as well under the configured
// Evaluator; otherwise the baseline is returned unchanged. See Evaluator
// and EnhancementConfig.
//
// # Hooks
//
// Observer hooks fire around attempts, validation failures, and enhancement
// rounds. Implement any subset of the hook interfaces and register with
// Pipeline.RegisterHook. See hooks.go.
package persuader
