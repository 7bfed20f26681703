package service

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/logger"
)

// Completer produces a text completion for a prompt. useCache controls
// whether a previously cached answer may be served; extraction calls disable
// it because two attempts over the same body must hit the model twice.
type Completer interface {
	Complete(ctx context.Context, prompt string, useCache bool) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CompletionClient talks to an OpenAI-compatible chat completions endpoint.
type CompletionClient struct {
	client *resty.Client
	model  string
	cache  *completionCache
}

func NewCompletionClient(cfg *config.LLMConfig) *CompletionClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &CompletionClient{
		client: client,
		model:  cfg.Model,
		cache:  newCompletionCache(cfg.CacheSize, cfg.CacheTTL),
	}
}

// Complete sends the prompt and returns the first choice's content.
func (c *CompletionClient) Complete(ctx context.Context, prompt string, useCache bool) (string, error) {
	key := cacheKey(prompt)
	if useCache {
		if answer, ok := c.cache.get(key); ok {
			logger.CtxDebug(ctx, "completion cache hit")
			return answer, nil
		}
	}

	start := time.Now()
	var result chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "user", Content: prompt},
			},
			Temperature: 0,
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("completion request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		return "", fmt.Errorf("completion API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	answer := result.Choices[0].Message.Content
	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldSize:       len(answer),
	}).Debug(ctx, "completion received")

	if useCache {
		c.cache.put(key, answer)
	}
	return answer, nil
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// completionCache is a small LRU with per-entry expiry.
type completionCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key     string
	answer  string
	expires time.Time
}

func newCompletionCache(maxSize int, ttl time.Duration) *completionCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &completionCache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *completionCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expires) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return "", false
	}
	c.order.MoveToFront(elem)
	return entry.answer, true
}

func (c *completionCache) put(key, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.answer = answer
		entry.expires = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	for c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	elem := c.order.PushFront(&cacheEntry{
		key:     key,
		answer:  answer,
		expires: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem
}
