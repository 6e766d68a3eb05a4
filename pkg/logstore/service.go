package logstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
)

// Service answers log-domain questions: fixed rules for the common
// aggregates, AI synthesis over gathered statistics for the rest, and a
// suggestion answer when neither applies.
type Service struct {
	store    types.LogStore
	provider types.Provider // nil disables synthesis
	logger   *zap.Logger
}

func NewService(store types.LogStore, provider types.Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, provider: provider, logger: logger}
}

func (s *Service) Name() string { return "search_logs" }

func (s *Service) Query(ctx context.Context, question string) *models.Result {
	lower := strings.ToLower(question)

	if strings.Contains(lower, "ip") && (strings.Contains(lower, "most") || strings.Contains(lower, "top")) {
		return s.topIPs(ctx)
	}
	if strings.Contains(lower, "error") || strings.Contains(lower, "400") || strings.Contains(lower, "500") {
		return s.errorAnalysis(ctx)
	}
	if strings.Contains(lower, "request") && strings.Contains(lower, "count") {
		return s.requestStats(ctx)
	}

	if s.provider != nil {
		if result := s.synthesized(ctx, question); result != nil {
			return result
		}
	}

	return &models.Result{
		Answer:      "I can help you analyze system logs. Try asking about top IPs, errors, or request statistics.",
		Type:        models.TypeSuggestion,
		Synthesized: false,
	}
}

func (s *Service) topIPs(ctx context.Context) *models.Result {
	stats, err := s.store.TopIPs(ctx, 20)
	if err != nil || len(stats) == 0 {
		if err != nil {
			s.logger.Error("top ip query failed", zap.Error(err))
		}
		return &models.Result{Answer: "No log data available", Type: models.TypeNoMatch, Synthesized: false}
	}

	top := stats[0]
	answer := fmt.Sprintf("The IP address generating the most requests is %s with %d requests",
		top.IPAddress, top.RequestCount)
	if top.ErrorCount > 0 {
		answer += fmt.Sprintf(", including %d errors", top.ErrorCount)
	}
	answer += "."

	return &models.Result{
		Answer:      answer,
		Data:        stats,
		Type:        models.TypeLogAnalysis,
		Synthesized: false,
	}
}

func (s *Service) errorAnalysis(ctx context.Context) *models.Result {
	stats, err := s.store.ErrorAnalysis(ctx)
	if err != nil {
		s.logger.Error("error analysis query failed", zap.Error(err))
		return &models.Result{Answer: "No log data available", Type: models.TypeNoMatch, Synthesized: false}
	}
	if len(stats) == 0 {
		return &models.Result{Answer: "No errors found in logs", Type: models.TypeLogAnalysis, Synthesized: false}
	}

	total := 0
	for _, st := range stats {
		total += st.Count
	}
	answer := fmt.Sprintf("Found %d total errors. Most common error: %d (%d occurrences).",
		total, stats[0].StatusCode, stats[0].Count)

	return &models.Result{
		Answer:      answer,
		Data:        stats,
		Type:        models.TypeLogAnalysis,
		Synthesized: false,
	}
}

func (s *Service) requestStats(ctx context.Context) *models.Result {
	overview, err := s.store.Overview(ctx)
	if err != nil {
		s.logger.Error("request stats query failed", zap.Error(err))
		return &models.Result{Answer: "No log data available", Type: models.TypeNoMatch, Synthesized: false}
	}

	answer := fmt.Sprintf("System has processed %d requests from %d unique IP addresses. Average response time: %.2fms.",
		overview.TotalRequests, overview.UniqueIPs, overview.AvgResponseTime)

	return &models.Result{
		Answer:      answer,
		Data:        overview,
		Type:        models.TypeLogAnalysis,
		Synthesized: false,
	}
}

// synthesized gathers overall statistics and asks the provider for an
// analysis. Any failure returns nil so the caller falls through.
func (s *Service) synthesized(ctx context.Context, question string) *models.Result {
	overview, err := s.store.Overview(ctx)
	if err != nil {
		s.logger.Warn("log overview unavailable for synthesis", zap.Error(err))
		return nil
	}
	endpoints, err := s.store.TopEndpoints(ctx, 5)
	if err != nil {
		s.logger.Warn("top endpoints unavailable for synthesis", zap.Error(err))
		return nil
	}

	var lines []string
	for _, ep := range endpoints {
		lines = append(lines, fmt.Sprintf("- %s: %d requests", ep.Endpoint, ep.Count))
	}

	prompt := fmt.Sprintf(`Based on the following system log statistics, answer this question: %s

System Log Statistics:
- Total requests: %d
- Unique IP addresses: %d
- Error count: %d
- Average response time: %.2fms
- Max response time: %dms

Top 5 Endpoints:
%s

Provide a concise, factual analysis.`,
		question, overview.TotalRequests, overview.UniqueIPs, overview.ErrorCount,
		overview.AvgResponseTime, overview.MaxResponseTime, strings.Join(lines, "\n"))

	answer, err := s.provider.Chat(ctx, "", prompt, 300)
	if err != nil {
		s.logger.Warn("log synthesis failed, falling back", zap.Error(err))
		return nil
	}

	return &models.Result{
		Answer:      answer,
		Data:        overview,
		Type:        models.TypeLogAnalysis,
		Synthesized: true,
	}
}
