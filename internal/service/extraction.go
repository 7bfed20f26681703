package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ventanaops/ventana/internal/logger"
	"github.com/ventanaops/ventana/internal/prompts"
)

// ErrExtractionFailed means neither completion attempt produced a JSON
// object with the required fields.
var ErrExtractionFailed = errors.New("could not extract maintenance window from email")

// Extractor pulls a maintenance window out of an email body, falling back to
// the completion model when the fast line-based parse fails.
type Extractor struct {
	completer Completer
}

func NewExtractor(completer Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract returns the maintenance window of the cleaned body. The fast path
// is tried first; otherwise the model is consulted, with one strict JSON-only
// retry reserved for answers that contain no JSON object at all. An answer
// that does carry JSON but fails the schema is a hard failure. The cache is
// disabled on both attempts so a retry never replays the answer that just
// failed to parse.
func (e *Extractor) Extract(ctx context.Context, body string) (*ExtractedWindow, error) {
	if win := ExtractFast(body); win != nil {
		logger.CtxDebug(ctx, "maintenance window extracted by fast path")
		return win, nil
	}

	answer, err := e.completer.Complete(ctx, prompts.Extraction(body), false)
	if err != nil {
		return nil, fmt.Errorf("first extraction attempt: %w", err)
	}
	if firstJSONObject(answer) == "" {
		logger.CtxWarn(ctx, "first extraction attempt returned no JSON, retrying strict")
		answer, err = e.completer.Complete(ctx, prompts.ExtractionStrict(body), false)
		if err != nil {
			return nil, fmt.Errorf("second extraction attempt: %w", err)
		}
	}

	win, err := parseWindow(answer)
	if err != nil {
		logger.CtxError(ctx, "extraction failed: %v", err)
		return nil, ErrExtractionFailed
	}
	return win, nil
}

// parseWindow finds the first balanced JSON object in the model's answer and
// validates the extraction schema.
func parseWindow(answer string) (*ExtractedWindow, error) {
	raw := firstJSONObject(answer)
	if raw == "" {
		return nil, errors.New("no JSON object in answer")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	for _, key := range []string{"inicio", "fin", "tipo", "ids"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("answer is missing %q", key)
		}
	}

	var win ExtractedWindow
	if err := json.Unmarshal([]byte(raw), &win); err != nil {
		return nil, fmt.Errorf("unexpected field types: %w", err)
	}
	win.Start = strings.TrimSpace(win.Start)
	win.End = strings.TrimSpace(win.End)
	win.TaskType = strings.TrimSpace(win.TaskType)
	if win.Start == "" || win.End == "" {
		return nil, errors.New("answer has empty window bounds")
	}
	return &win, nil
}

// firstJSONObject returns the first brace-balanced object in s, tolerating
// prose or code fences around it. Strings and escapes are respected so
// braces inside values do not end the scan early.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
