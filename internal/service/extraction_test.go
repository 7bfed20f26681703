package service

import (
	"context"
	"errors"
	"testing"
)

// stubCompleter replays scripted answers and records how it was called.
type stubCompleter struct {
	answers    []string
	calls      int
	cacheFlags []bool
	err        error
}

func (s *stubCompleter) Complete(_ context.Context, _ string, useCache bool) (string, error) {
	s.calls++
	s.cacheFlags = append(s.cacheFlags, useCache)
	if s.err != nil {
		return "", s.err
	}
	if s.calls <= len(s.answers) {
		return s.answers[s.calls-1], nil
	}
	return "", errors.New("no scripted answer left")
}

const llmBody = "Les informamos que se realizaran trabajos en su circuito.\n" +
	"Los trabajos comienzan el dia 10 de marzo a las 02:00 y terminan a las 06:00."

func TestExtractFastPathSkipsModel(t *testing.T) {
	stub := &stubCompleter{}
	e := NewExtractor(stub)

	body := "Inicio: 2024-03-10 02:00\nFin: 2024-03-10 06:00\nServicios afectados: CRT-000123"
	win, err := e.Extract(context.Background(), body)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if win.Start != "2024-03-10 02:00" {
		t.Errorf("Start = %q", win.Start)
	}
	if stub.calls != 0 {
		t.Errorf("model called %d times, want 0", stub.calls)
	}
}

func TestExtractSecondAttemptRecovers(t *testing.T) {
	stub := &stubCompleter{answers: []string{
		"Claro, aqui tienes los datos que encontre en el correo.",
		`{"inicio": "2024-03-10 02:00", "fin": "2024-03-10 06:00", "tipo": "Programada", "ids": ["CRT-000123"]}`,
	}}
	e := NewExtractor(stub)

	win, err := e.Extract(context.Background(), llmBody)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("model called %d times, want 2", stub.calls)
	}
	for i, useCache := range stub.cacheFlags {
		if useCache {
			t.Errorf("call %d used the cache; extraction must always hit the model", i+1)
		}
	}
	if win.TaskType != "Programada" {
		t.Errorf("TaskType = %q", win.TaskType)
	}
	if len(win.IDs) != 1 || win.IDs[0] != "CRT-000123" {
		t.Errorf("IDs = %v", win.IDs)
	}
}

func TestExtractFailsAfterTwoAttempts(t *testing.T) {
	stub := &stubCompleter{answers: []string{
		"no json here",
		"still no json",
	}}
	e := NewExtractor(stub)

	_, err := e.Extract(context.Background(), llmBody)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Extract() error = %v, want ErrExtractionFailed", err)
	}
	if stub.calls != 2 {
		t.Errorf("model called %d times, want 2", stub.calls)
	}
}

func TestExtractMissingSchemaField(t *testing.T) {
	// Object parses but lacks "ids". The strict retry is reserved for
	// answers without any JSON, so a schema miss fails on the spot.
	answer := `{"inicio": "2024-03-10 02:00", "fin": "2024-03-10 06:00", "tipo": "Programada"}`
	stub := &stubCompleter{answers: []string{answer}}
	e := NewExtractor(stub)

	_, err := e.Extract(context.Background(), llmBody)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Extract() error = %v, want ErrExtractionFailed", err)
	}
	if stub.calls != 1 {
		t.Errorf("model called %d times, want 1", stub.calls)
	}
}

func TestParseWindowTolerantOfProse(t *testing.T) {
	answer := "Aqui esta el resultado:\n```json\n" +
		`{"inicio": "2024-03-10 02:00", "fin": "2024-03-10 06:00", "tipo": "Emergencia", "ids": ["1042", "CRT-000123"]}` +
		"\n```\nEspero que sirva."

	win, err := parseWindow(answer)
	if err != nil {
		t.Fatalf("parseWindow() error = %v", err)
	}
	if win.TaskType != "Emergencia" {
		t.Errorf("TaskType = %q", win.TaskType)
	}
	if len(win.IDs) != 2 {
		t.Errorf("IDs = %v", win.IDs)
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"prose around", `the answer is {"a": 1} hope it helps`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"brace inside string", `{"a": "x } y"}`, `{"a": "x } y"}`},
		{"escaped quote", `{"a": "he said \"}\""}`, `{"a": "he said \"}\""}`},
		{"no object", "nothing here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstJSONObject(tt.in); got != tt.want {
				t.Errorf("firstJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}
