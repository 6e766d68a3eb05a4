// Package router dispatches questions to the domain searchers. The
// primary path asks a tool-selection provider to pick domains; the
// fallback is an ordered keyword rule table that works with no AI at
// all.
package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
)

const combinedSynthesisMaxTokens = 600

const (
	ToolDocuments = "search_documents"
	ToolLogs      = "search_logs"
	ToolImages    = "search_images"
)

// toolMenu is the fixed menu presented to the tool-selection provider.
var toolMenu = []types.Tool{
	{
		Name:        ToolImages,
		Description: "Search site camera images for safety compliance analysis. Use this for queries about workers, safety equipment (hard hats, vests, tablets), PPE compliance, or visual site inspections. Returns image analysis with compliance scores.",
	},
	{
		Name:        ToolDocuments,
		Description: "Search annual reports using semantic vector search. Use this for queries about operations, safety incidents, Tier 1/Tier 2 events, oil spills, annual statistics, drilling procedures, or company policies. Returns document excerpts with citations.",
	},
	{
		Name:        ToolLogs,
		Description: "Search system operational logs in PostgreSQL. Use this for queries about IP addresses, HTTP errors, request statistics, response times, or system performance metrics. Returns log analysis and statistics.",
	},
}

// Keyword groups for fallback routing, tested in rule-table order.
var (
	safetyTerms   = []string{"incident", "safety", "hard hat", "helmet", "vest", "equipment", "compliance", "without"}
	imageTerms    = []string{"image", "camera", "site", "worker", "engineer", "tablet"}
	logTerms      = []string{"log", "ip", "error", "request"}
	documentTerms = []string{"bp", "drill", "operation", "annual report"}
)

const clarificationAnswer = "Please specify if you're asking about:\n" +
	"- Safety incidents/compliance (combines annual reports + site images)\n" +
	"- Site camera images (workers, equipment)\n" +
	"- System logs (IP addresses, errors)\n" +
	"- Document operations (drilling, procedures)"

// Router owns the domain searchers and the routing policy.
type Router struct {
	provider types.Provider // nil disables AI routing
	docs     types.DomainSearcher
	logs     types.DomainSearcher
	images   types.DomainSearcher
	logger   *zap.Logger
	rules    []rule
}

// rule is one entry of the fallback table: first predicate to match
// wins, so precedence lives in slice order.
type rule struct {
	name    string
	matches func(lower string) bool
	handle  func(ctx context.Context, question string) *models.Result
}

func New(provider types.Provider, docs, logs, images types.DomainSearcher, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{provider: provider, docs: docs, logs: logs, images: images, logger: logger}
	r.rules = []rule{
		{"safety", matchAny(safetyTerms), r.combinedSafety},
		{"images", matchAny(imageTerms), r.dispatchTo(images)},
		{"logs", matchAny(logTerms), r.dispatchTo(logs)},
		{"documents", matchAny(documentTerms), r.dispatchTo(docs)},
	}
	return r
}

// Answer routes one question. It never returns an error: the worst
// outcome is a clarification or no-match response.
func (r *Router) Answer(ctx context.Context, question string) *models.Result {
	if r.provider != nil {
		if result := r.routeWithAI(ctx, question); result != nil {
			return result
		}
		r.logger.Info("ai routing unavailable, using keyword routing", zap.String("question", question))
	}
	return r.routeWithKeywords(ctx, question)
}

func (r *Router) routeWithAI(ctx context.Context, question string) *models.Result {
	calls, err := r.provider.SelectTools(ctx, question, toolMenu)
	if err != nil {
		r.logger.Warn("tool selection failed", zap.Error(err))
		return nil
	}
	if len(calls) == 0 {
		r.logger.Warn("provider selected no tools")
		return nil
	}

	var (
		results     []*models.Result
		toolsCalled []string
	)
	for _, call := range calls {
		searcher := r.searcherFor(call.Name)
		if searcher == nil {
			r.logger.Warn("provider selected unknown tool", zap.String("tool", call.Name))
			continue
		}
		q := call.Question
		if q == "" {
			q = question
		}
		result := searcher.Query(ctx, q)
		result.ToolUsed = call.Name
		results = append(results, result)
		toolsCalled = append(toolsCalled, call.Name)
	}
	if len(results) == 0 {
		return nil
	}

	r.logger.Info("ai routing selected tools", zap.Strings("tools", toolsCalled))

	if len(results) == 1 {
		single := results[0]
		single.RoutingMethod = models.RoutingAI
		single.ToolsCalled = toolsCalled
		return single
	}
	return r.combineToolResults(ctx, question, results, toolsCalled)
}

// combineToolResults synthesizes one answer over several tool results,
// attributing each source domain.
func (r *Router) combineToolResults(ctx context.Context, question string,
	results []*models.Result, toolsCalled []string) *models.Result {

	var sections []string
	for _, res := range results {
		answer := res.Answer
		if answer == "" {
			answer = "No data"
		}
		sections = append(sections, fmt.Sprintf("From %s: %s", res.ToolUsed, answer))
	}

	prompt := fmt.Sprintf(`The user asked: %q

Data from multiple sources:
%s

Synthesize a comprehensive answer that combines insights from all sources. Be concise but complete.`,
		question, strings.Join(sections, "\n"))

	answer, err := r.provider.Chat(ctx, "", prompt, combinedSynthesisMaxTokens)
	if err != nil || answer == "" {
		if err != nil {
			r.logger.Warn("combined synthesis failed, joining sections", zap.Error(err))
		}
		answer = strings.Join(sections, "\n\n")
	}

	var sources []models.Candidate
	for _, res := range results {
		sources = append(sources, res.Sources...)
	}

	return &models.Result{
		Answer:        answer,
		Sources:       sources,
		Type:          models.TypeMultiSource,
		RoutingMethod: models.RoutingAI,
		ToolsCalled:   toolsCalled,
		Synthesized:   true,
	}
}

func (r *Router) routeWithKeywords(ctx context.Context, question string) *models.Result {
	lower := strings.ToLower(question)
	for _, rl := range r.rules {
		if rl.matches(lower) {
			r.logger.Info("keyword routing matched", zap.String("rule", rl.name))
			result := rl.handle(ctx, question)
			result.RoutingMethod = models.RoutingKeyword
			return result
		}
	}
	return &models.Result{
		Answer:        clarificationAnswer,
		Type:          models.TypeClarification,
		RoutingMethod: models.RoutingKeyword,
		Synthesized:   false,
	}
}

// combinedSafety answers safety/incident questions from both the
// document and image domains in one response.
func (r *Router) combinedSafety(ctx context.Context, question string) *models.Result {
	docResult := r.docs.Query(ctx, question)
	imageResult := r.images.Query(ctx, question)

	var answer string
	if docResult.Type == models.TypeDocuments {
		answer += "According to the annual reports: " + docResult.Answer + "\n\n"
	}
	if imageResult.Type == models.TypeImageAnalysis {
		answer += "Based on site camera analysis: " + imageResult.Answer
	} else if answer == "" {
		answer = imageResult.Answer
	}
	if answer == "" {
		answer = "No safety incident data available."
	}

	return &models.Result{
		Answer:        answer,
		DocSources:    docResult.Sources,
		ImageData:     imageResult.ImageData,
		Sites:         imageResult.Sites,
		AvgCompliance: imageResult.AvgCompliance,
		Type:          models.TypeCombined,
		Synthesized:   docResult.Synthesized || imageResult.Synthesized,
	}
}

func (r *Router) dispatchTo(searcher types.DomainSearcher) func(context.Context, string) *models.Result {
	return func(ctx context.Context, question string) *models.Result {
		return searcher.Query(ctx, question)
	}
}

func (r *Router) searcherFor(name string) types.DomainSearcher {
	switch name {
	case ToolDocuments:
		return r.docs
	case ToolLogs:
		return r.logs
	case ToolImages:
		return r.images
	default:
		return nil
	}
}

func matchAny(terms []string) func(string) bool {
	return func(lower string) bool {
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		return false
	}
}
