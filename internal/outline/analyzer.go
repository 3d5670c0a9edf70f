package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ansci/internal/cachestore"
	"ansci/internal/config"
	"ansci/internal/logging"
	"ansci/internal/services"
	"ansci/internal/services/llm"
)

const cacheStage = "outline"

const systemPrompt = `You are a scriptwriter planning a narrated educational animation from a technical document.
Produce a JSON object with this exact shape and nothing else:
{"title": "<video title>", "blocks": [{"title": "<section title>", "text": "<source material for this section>"}]}
Blocks must appear in presentation order. Every title and text must be non-empty.
Do not wrap the JSON in markdown fences or prose.`

type completionClient interface {
	CompleteJSONConversation(ctx context.Context, systemPrompt string, turns []llm.Message) (string, error)
}

// Request carries everything the analyzer needs for one document.
type Request struct {
	Document []byte
	Scope    Scope
	// Steering optionally biases the outline (tone, emphasis, audience).
	Steering string
	// History holds prior conversation turns that should color the result.
	History []llm.Message
}

// Analyzer generates outlines from documents.
type Analyzer struct {
	client     completionClient
	cache      *cachestore.Store
	cacheTTL   time.Duration
	maxRetries int
	logger     *slog.Logger
}

// NewAnalyzer wires the analyzer to the LLM client and an optional cache
// store (nil disables memoization).
func NewAnalyzer(cfg *config.Config, client completionClient, cache *cachestore.Store, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxRetries := 3
	var cacheTTL time.Duration
	if cfg != nil {
		if cfg.Outline.MaxRetries > 0 {
			maxRetries = cfg.Outline.MaxRetries
		}
		if !cfg.Cache.Enabled {
			cache = nil
		}
		cacheTTL = time.Duration(cfg.Cache.TTLHours) * time.Hour
	}
	return &Analyzer{
		client:     client,
		cache:      cache,
		cacheTTL:   cacheTTL,
		maxRetries: maxRetries,
		logger:     logging.NewComponentLogger(logger, "outline"),
	}
}

// Analyze produces an outline for the request. Validation failures feed a
// corrective instruction back to the model; when the retry budget is
// exhausted the returned error is fatal for the job.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Outline, error) {
	if len(req.Document) == 0 {
		return nil, services.Wrap(services.ErrOutlineGeneration, cacheStage, "analyze", "document is empty", nil)
	}
	if req.Scope == "" {
		req.Scope = ScopeCoreConcepts
	}

	if a.cache == nil {
		return a.generate(ctx, req)
	}

	key := a.cacheKey(req)
	payload, hit, err := a.cache.GetOrFill(ctx, cacheStage, key, a.cacheTTL, func(ctx context.Context) ([]byte, error) {
		result, genErr := a.generate(ctx, req)
		if genErr != nil {
			return nil, genErr
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		a.logger.Info("outline cache hit",
			logging.String(logging.FieldEventType, "outline_cache_hit"),
			logging.String("scope", string(req.Scope)))
	}

	var result Outline
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, services.Wrap(services.ErrOutlineGeneration, cacheStage, "decode_cached", "cached outline is corrupt", err)
	}
	return &result, nil
}

func (a *Analyzer) generate(ctx context.Context, req Request) (*Outline, error) {
	turns := make([]llm.Message, 0, len(req.History)+1+2*a.maxRetries)
	turns = append(turns, req.History...)
	turns = append(turns, llm.Message{Role: "user", Content: a.userPrompt(req)})

	var lastViolations []string
	attempts := a.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := a.client.CompleteJSONConversation(ctx, systemPrompt, turns)
		if err != nil {
			return nil, services.Wrap(services.ErrOutlineGeneration, cacheStage, "complete", "outline completion failed", err)
		}

		var result Outline
		if decodeErr := llm.DecodeLLMJSON(content, &result); decodeErr != nil {
			lastViolations = []string{"response was not the requested JSON object: " + decodeErr.Error()}
		} else {
			lastViolations = result.Validate()
			if len(lastViolations) == 0 {
				a.logger.Info("outline generated",
					logging.String(logging.FieldEventType, "outline_generated"),
					logging.String("scope", string(req.Scope)),
					logging.Int("blocks", len(result.Blocks)),
					logging.Int("attempt", attempt))
				return &result, nil
			}
		}

		a.logger.Warn("outline rejected",
			logging.String(logging.FieldEventType, "outline_rejected"),
			logging.Int("attempt", attempt),
			logging.String("violations", strings.Join(lastViolations, "; ")))

		turns = append(turns,
			llm.Message{Role: "assistant", Content: content},
			llm.Message{Role: "user", Content: correctiveInstruction(lastViolations)},
		)
	}

	return nil, services.Wrap(services.ErrOutlineGeneration, cacheStage, "analyze",
		fmt.Sprintf("outline invalid after %d attempts: %s", attempts, strings.Join(lastViolations, "; ")), nil)
}

func (a *Analyzer) userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Plan ")
	b.WriteString(req.Scope.description())
	b.WriteString(".\n")
	if steering := strings.TrimSpace(req.Steering); steering != "" {
		b.WriteString("Additional direction: ")
		b.WriteString(steering)
		b.WriteString("\n")
	}
	b.WriteString("\nDocument:\n")
	b.Write(req.Document)
	return b.String()
}

func correctiveInstruction(violations []string) string {
	var b strings.Builder
	b.WriteString("The outline was rejected for these reasons:\n")
	for _, violation := range violations {
		b.WriteString("- ")
		b.WriteString(violation)
		b.WriteString("\n")
	}
	b.WriteString("Return a corrected JSON outline with the same shape.")
	return b.String()
}

func (a *Analyzer) cacheKey(req Request) string {
	parts := make([]string, 0, 3+2*len(req.History)+1)
	parts = append(parts, cacheStage, string(req.Scope), strings.TrimSpace(req.Steering))
	for _, turn := range req.History {
		parts = append(parts, turn.Role, turn.Content)
	}
	parts = append(parts, string(req.Document))
	return cachestore.Key(parts...)
}
