package agent

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/deepagent-go/deepagent/internal/approval"
	"github.com/deepagent-go/deepagent/internal/backend"
	"github.com/deepagent-go/deepagent/internal/checkpoint"
	"github.com/deepagent-go/deepagent/internal/contextmgmt"
	"github.com/deepagent-go/deepagent/internal/message"
	"github.com/deepagent-go/deepagent/internal/provider"
	"github.com/deepagent-go/deepagent/internal/tools"
)

// DefaultMaxSteps/DefaultMaxSubagentSteps mirror spec §4.8 step 5: "maxSteps
// default 100; sub-agents default 50".
const (
	DefaultMaxSteps         = 100
	DefaultMaxSubagentSteps = 50
	// DefaultWebRateLimit bounds web_search/http_request/fetch_url to this
	// many requests per second, shared across a single Agent, so a model
	// that loops on a network tool can't hammer whatever's on the other
	// end of Search/Fetcher (spec §5's network-tool timeouts cover a single
	// call; this covers the run as a whole).
	DefaultWebRateLimit = 5
)

// SubagentConfig is one named entry of the Options.Subagents registry
// (spec §6 "subagents"): an isolated inner tool loop with its own prompt,
// tool set, and approval policy, sharing the parent's backend but not its
// message buffer (spec §9 "Sub-agents").
type SubagentConfig struct {
	Description  string
	SystemPrompt string
	Tools        []tools.Tool
	InterruptOn  approval.Config
	MaxSteps     int
}

// GenerateFunc is the shape of provider.ModelClient.Generate, pulled out
// as a standalone function type so Middleware can wrap it without wrapping
// a whole interface value.
type GenerateFunc func(ctx context.Context, messages []message.Message, tools []provider.ToolDef, opts provider.Options) (<-chan provider.Part, <-chan error)

// Middleware wraps a model call, composing around the model client's
// Generate method the way spec §6's "middleware" option describes
// ("optional chain wrapping model calls").
type Middleware func(next GenerateFunc) GenerateFunc

// Options configures one Agent (spec §6's configuration table).
type Options struct {
	// Model is the provider.ModelClient driving the tool loop. Required.
	Model provider.ModelClient
	// ModelName is passed through to provider.Options.Model on every call.
	ModelName string
	// SystemPrompt seeds provider.Options.System on every call.
	SystemPrompt string

	// Tools are additional user-supplied tool descriptors, appended to the
	// built-in core/optional set (spec §6 "tools").
	Tools []tools.Tool

	// Backend is the filesystem backend instance; defaults to a fresh
	// in-memory state backend (spec §6 "backend").
	Backend backend.Backend

	// Checkpointer persists thread state; nil disables persistence
	// entirely (spec §6 "checkpointer").
	Checkpointer checkpoint.Checkpointer

	// InterruptOn is the per-tool approval config (spec §6 "interruptOn").
	InterruptOn approval.Config
	// OnApprovalRequest decides a gated call; nil means default-deny
	// (spec §6 "onApprovalRequest").
	OnApprovalRequest approval.RequestHandler

	// MaxSteps bounds the top-level tool loop; 0 uses DefaultMaxSteps.
	MaxSteps int
	// WebRateLimit caps web_search/http_request/fetch_url to this many
	// requests per second across the whole Agent; 0 uses
	// DefaultWebRateLimit.
	WebRateLimit float64
	// TokenThreshold triggers summarization; 0 uses
	// contextmgmt.DefaultTokenThreshold.
	TokenThreshold int
	// KeepMessages is how many trailing messages summarization always
	// preserves; 0 uses contextmgmt.DefaultKeepMessages.
	KeepMessages int
	// EvictionLimit is the tool-result inlining threshold in tokens; 0
	// uses contextmgmt.DefaultEvictionLimit.
	EvictionLimit int
	// Summarizer implements contextmgmt.Summarizer; required only if the
	// buffer is expected to cross TokenThreshold. A nil Summarizer simply
	// disables summarization (the buffer grows unbounded).
	Summarizer contextmgmt.Summarizer

	// Middleware wraps every model call, outermost first.
	Middleware []Middleware

	// Subagents is the named sub-agent registry the task tool dispatches
	// into (spec §6 "subagents").
	Subagents map[string]SubagentConfig

	// OutputSchema, if set, is handed to the provider as
	// provider.Options.OutputSchema and used to parse the final assistant
	// message via provider.ParseStructuredOutput (spec §6 "output").
	OutputSchema map[string]any

	// Sandbox/Search/Fetcher back the optional execute/web_search/
	// http_request/fetch_url tools; nil leaves them reporting
	// "not configured" (spec §6).
	Sandbox tools.Sandbox
	Search  tools.WebSearchProvider
	Fetcher tools.URLFetcher
}

// resolved holds Options after defaulting and env-var overrides, to keep
// Agent's fields free of the zero-value-means-default ambiguity.
type resolved struct {
	model             provider.ModelClient
	modelName         string
	systemPrompt      string
	extraTools        []tools.Tool
	backend           backend.Backend
	checkpointer      checkpoint.Checkpointer
	interruptOn       approval.Config
	onApprovalRequest approval.RequestHandler
	maxSteps          int
	webLimiter        *rate.Limiter
	tokenThreshold    int
	keepMessages      int
	evictionLimit     int
	summarizer        contextmgmt.Summarizer
	middleware        []Middleware
	subagents         map[string]SubagentConfig
	outputSchema      map[string]any
	sandbox           tools.Sandbox
	search            tools.WebSearchProvider
	fetcher           tools.URLFetcher
}

func resolveOptions(o Options) (resolved, error) {
	if o.Model == nil {
		return resolved{}, fmt.Errorf("agent: Options.Model is required")
	}

	webRateLimit := defaultFloat(o.WebRateLimit, DefaultWebRateLimit)

	r := resolved{
		model:             o.Model,
		modelName:         o.ModelName,
		systemPrompt:      o.SystemPrompt,
		extraTools:        o.Tools,
		backend:           o.Backend,
		checkpointer:      o.Checkpointer,
		interruptOn:       o.InterruptOn,
		onApprovalRequest: o.OnApprovalRequest,
		maxSteps:          envIntOverride("DEEPAGENT_MAX_STEPS", defaultInt(o.MaxSteps, DefaultMaxSteps)),
		webLimiter:        rate.NewLimiter(rate.Limit(webRateLimit), maxInt(1, int(webRateLimit))),
		tokenThreshold:    envIntOverride("DEEPAGENT_TOKEN_THRESHOLD", defaultInt(o.TokenThreshold, contextmgmt.DefaultTokenThreshold)),
		keepMessages:      envIntOverride("DEEPAGENT_KEEP_MESSAGES", defaultInt(o.KeepMessages, contextmgmt.DefaultKeepMessages)),
		evictionLimit:     envIntOverride("DEEPAGENT_EVICTION_LIMIT", defaultInt(o.EvictionLimit, contextmgmt.DefaultEvictionLimit)),
		summarizer:        o.Summarizer,
		middleware:        o.Middleware,
		subagents:         o.Subagents,
		outputSchema:      o.OutputSchema,
		sandbox:           o.Sandbox,
		search:            o.Search,
		fetcher:           o.Fetcher,
	}

	if r.backend == nil {
		r.backend = backend.NewStateBackend(nil)
	}
	if r.subagents == nil {
		r.subagents = map[string]SubagentConfig{}
	}
	return r, nil
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func defaultFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// envIntOverride reads name from the environment and, if set and a valid
// positive integer, overrides def; an invalid or non-positive value warns
// to stderr and keeps def, following DefaultRetryConfig's defensive
// env-parsing idiom (never panic on bad operator input).
func envIntOverride(name string, def int) int {
	env := os.Getenv(name)
	if env == "" {
		return def
	}
	v, err := strconv.Atoi(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s format (%q), using default %d\n", name, env, def)
		return def
	}
	if v <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: %s must be positive (%d), using default %d\n", name, v, def)
		return def
	}
	return v
}
