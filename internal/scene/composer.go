package scene

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
	"ansci/internal/outline"
	"ansci/internal/quality"
	"ansci/internal/services"
	"ansci/internal/services/llm"
)

const cacheStage = "scene"

const systemPrompt = `You are writing one scene of a narrated educational animation.
Produce a JSON object with this exact shape and nothing else:
{"transcript": "<spoken narration>", "description": "<what appears on screen>", "code": "<animation code>"}
The transcript is read aloud by a narrator; write flowing prose, no markup.
The code is a Python animation scene: a class deriving from Scene with a construct method.
Do not wrap the JSON in markdown fences or prose.`

type completionClient interface {
	CompleteJSONConversation(ctx context.Context, systemPrompt string, turns []llm.Message) (string, error)
}

// Request describes one scene to compose.
type Request struct {
	Index int
	Block outline.Block
	Scope outline.Scope
	// Context carries the accumulated narrative from earlier scenes.
	Context string
	// Persona optionally colors the narration style.
	Persona string
}

// Result is a composed scene plus how it was obtained.
type Result struct {
	Block     Block
	Flag      quality.Flag
	FromCache bool
}

// Composer generates scenes through the LLM with transcript length
// enforcement and content-hash memoization.
type Composer struct {
	client   completionClient
	cache    *cachestore.Store
	cacheTTL time.Duration
	minWords int
	maxWords int
	logger   *slog.Logger
}

// NewComposer wires the composer to the LLM client and an optional cache
// store (nil disables memoization).
func NewComposer(cfg *config.Config, client completionClient, cache *cachestore.Store, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	minWords, maxWords := 75, 150
	var cacheTTL time.Duration
	if cfg != nil {
		if cfg.Scene.TranscriptMinWords > 0 {
			minWords = cfg.Scene.TranscriptMinWords
		}
		if cfg.Scene.TranscriptMaxWords > 0 {
			maxWords = cfg.Scene.TranscriptMaxWords
		}
		if !cfg.Cache.Enabled {
			cache = nil
		}
		cacheTTL = time.Duration(cfg.Cache.TTLHours) * time.Hour
	}
	return &Composer{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
		minWords: minWords,
		maxWords: maxWords,
		logger:   logging.NewComponentLogger(logger, "scene"),
	}
}

// Compose produces the scene for the request. A cache hit returns
// immediately with flag OK; a miss generates, validates the transcript
// band, regenerates at most once with the violations as hints, and accepts
// the second result regardless.
func (c *Composer) Compose(ctx context.Context, req Request) (*Result, error) {
	if c.cache == nil {
		block, err := c.generate(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Result{Block: *block, Flag: quality.OK}, nil
	}

	key := c.cacheKey(req)
	payload, hit, err := c.cache.GetOrFill(ctx, cacheStage, key, c.cacheTTL, func(ctx context.Context) ([]byte, error) {
		block, genErr := c.generate(ctx, req)
		if genErr != nil {
			return nil, genErr
		}
		return json.Marshal(block)
	})
	if err != nil {
		return nil, err
	}

	var block Block
	if err := json.Unmarshal(payload, &block); err != nil {
		return nil, services.Wrap(services.ErrSceneGeneration, cacheStage, "decode_cached", "cached scene is corrupt", err)
	}
	if hit {
		c.logger.Info("scene cache hit",
			logging.String(logging.FieldEventType, "scene_cache_hit"),
			logging.Int(logging.FieldScene, req.Index+1))
	}
	return &Result{Block: block, Flag: quality.OK, FromCache: hit}, nil
}

func (c *Composer) generate(ctx context.Context, req Request) (*Block, error) {
	turns := []llm.Message{{Role: "user", Content: c.userPrompt(req)}}

	block, content, err := c.completeOnce(ctx, turns, req.Index)
	if err != nil {
		return nil, err
	}
	violations := c.validate(block)
	if len(violations) == 0 {
		return block, nil
	}

	c.logger.Warn("scene rejected, regenerating",
		logging.String(logging.FieldEventType, "scene_regenerate"),
		logging.Int(logging.FieldScene, req.Index+1),
		logging.String("violations", strings.Join(violations, "; ")))

	turns = append(turns,
		llm.Message{Role: "assistant", Content: content},
		llm.Message{Role: "user", Content: regenerationFeedback(violations)},
	)
	regenerated, _, err := c.completeOnce(ctx, turns, req.Index)
	if err != nil {
		return nil, err
	}
	// One regeneration only; the second result ships as-is.
	return regenerated, nil
}

// Regenerate produces a fresh scene with the feedback folded into the
// prompt. The cache entry for the request is overwritten on success so
// later runs pick up the repaired scene.
func (c *Composer) Regenerate(ctx context.Context, req Request, feedback []string) (*Block, error) {
	prompt := c.userPrompt(req) + "\n\n" + regenerationFeedback(feedback)
	turns := []llm.Message{{Role: "user", Content: prompt}}
	block, _, err := c.completeOnce(ctx, turns, req.Index)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if payload, marshalErr := json.Marshal(block); marshalErr == nil {
			if putErr := c.cache.Put(ctx, cacheStage, c.cacheKey(req), payload); putErr != nil {
				c.logger.Warn("scene cache update failed",
					logging.String(logging.FieldEventType, "scene_cache_update_failed"),
					logging.Error(putErr))
			}
		}
	}
	return block, nil
}

func (c *Composer) completeOnce(ctx context.Context, turns []llm.Message, index int) (*Block, string, error) {
	content, err := c.client.CompleteJSONConversation(ctx, systemPrompt, turns)
	if err != nil {
		return nil, "", services.Wrap(services.ErrSceneGeneration, cacheStage, "complete",
			fmt.Sprintf("scene %d completion failed", index+1), err)
	}
	var block Block
	if err := llm.DecodeLLMJSON(content, &block); err != nil {
		return nil, "", services.Wrap(services.ErrSceneGeneration, cacheStage, "decode",
			fmt.Sprintf("scene %d response was not valid JSON", index+1), err)
	}
	return &block, content, nil
}

// validate collects regeneration-worthy defects: transcript outside the
// word band, or missing description/code.
func (c *Composer) validate(block *Block) []string {
	var violations []string
	words := block.WordCount()
	if words < c.minWords || words > c.maxWords {
		violations = append(violations, fmt.Sprintf(
			"transcript has %d words; aim for between %d and %d words", words, c.minWords, c.maxWords))
	}
	if strings.TrimSpace(block.Description) == "" {
		violations = append(violations, "description must not be empty")
	}
	if strings.TrimSpace(block.Code) == "" {
		violations = append(violations, "code must not be empty")
	}
	return violations
}

func (c *Composer) userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene %d: %s\n\n", req.Index+1, req.Block.Title)
	fmt.Fprintf(&b, "Source material:\n%s\n\n", req.Block.Text)
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		fmt.Fprintf(&b, "The story so far (do not repeat it, build on it):\n%s\n\n", ctx)
	}
	if persona := strings.TrimSpace(req.Persona); persona != "" {
		fmt.Fprintf(&b, "Narration style: %s\n\n", persona)
	}
	fmt.Fprintf(&b, "Write the transcript at %d-%d words.", c.minWords, c.maxWords)
	return b.String()
}

func regenerationFeedback(violations []string) string {
	var b strings.Builder
	b.WriteString("The scene needs another pass:\n")
	for _, violation := range violations {
		b.WriteString("- ")
		b.WriteString(violation)
		b.WriteString("\n")
	}
	b.WriteString("Return the corrected JSON scene with the same shape.")
	return b.String()
}

func (c *Composer) cacheKey(req Request) string {
	return cachestore.Key(
		cacheStage,
		string(req.Scope),
		req.Block.Title,
		req.Block.Text,
		req.Context,
		req.Persona,
	)
}
