// Package ai runs the summarization and intent prompts behind the note
// editor. Note classification never depends on it.
package ai

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	appcfg "github.com/smartwork/assistant/internal/config"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Factory builds a Generator; apiKey is empty for the configured key.
type Factory func(ctx context.Context, apiKey string) (Generator, error)

type Service struct {
	newGen Factory
	log    *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	fallback Generator
}

func NewService(cfg appcfg.AIConfig, log *zap.Logger) *Service {
	return NewServiceWith(func(ctx context.Context, apiKey string) (Generator, error) {
		return NewGenerator(ctx, cfg, apiKey)
	}, log)
}

// NewServiceWith uses f to build generators.
func NewServiceWith(f Factory, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{newGen: f, log: log, now: time.Now}
}

func (s *Service) generator(ctx context.Context, apiKey string) (Generator, error) {
	if strings.TrimSpace(apiKey) != "" {
		return s.newGen(ctx, apiKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallback != nil {
		return s.fallback, nil
	}
	g, err := s.newGen(ctx, "")
	if err != nil {
		return nil, err
	}
	s.fallback = g
	return g, nil
}

func (s *Service) generate(ctx context.Context, apiKey string, req Request) (string, error) {
	g, err := s.generator(ctx, apiKey)
	if err != nil {
		return "", apperr.Upstream(err)
	}
	out, err := g.Generate(ctx, req)
	if err != nil {
		s.log.Warn("ai generation failed", zap.Error(err))
		return "", apperr.Upstream(err)
	}
	return out, nil
}

// Summary condenses text. For schedule summaries it also extracts an event;
// a reply that is not JSON becomes the summary with no schedule.
func (s *Service) Summary(ctx context.Context, dto SummaryDTO) (*SummaryResult, error) {
	if strings.TrimSpace(dto.Text) == "" {
		return nil, apperr.Validation("Text is required")
	}
	if dto.Type != SummarySchedule {
		out, err := s.generate(ctx, dto.APIKey, Request{Prompt: buildGeneralSummaryPrompt(dto.Text)})
		if err != nil {
			return nil, err
		}
		return &SummaryResult{Summary: strings.TrimSpace(out)}, nil
	}

	out, err := s.generate(ctx, dto.APIKey, Request{Prompt: buildSchedulePrompt(dto.Text, s.now())})
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Summary  string    `json:"summary"`
		Schedule *Schedule `json:"schedule"`
	}
	if err := unmarshalAIJSON(out, &parsed); err != nil {
		s.log.Info("schedule summary was not JSON", zap.String("raw", out))
		return &SummaryResult{Summary: out, hasSchedule: true}, nil
	}
	return &SummaryResult{Summary: parsed.Summary, Schedule: parsed.Schedule, hasSchedule: true}, nil
}

// Summarize writes a short Korean work summary of content.
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.Validation("내용이 필요합니다.")
	}
	out, err := s.generate(ctx, "", Request{
		Prompt:      buildWorkSummaryPrompt(content),
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AnalyzeIntent reads content as a possible calendar entry.
func (s *Service) AnalyzeIntent(ctx context.Context, content string) (*Intent, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("Text content is required")
	}
	out, err := s.generate(ctx, "", Request{
		Prompt:      buildIntentPrompt(content, s.now()),
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	var intent Intent
	if err := unmarshalAIJSON(out, &intent); err != nil {
		return nil, apperr.Upstream(err)
	}
	return &intent, nil
}

// Architecture turns inventory items into Mermaid diagram source.
func (s *Service) Architecture(ctx context.Context, features []json.RawMessage) (string, error) {
	if features == nil {
		return "", apperr.Validation("Invalid features data")
	}
	out, err := s.generate(ctx, "", Request{Prompt: buildArchitecturePrompt(features)})
	if err != nil {
		return "", err
	}
	return stripFence(out, "mermaid"), nil
}
