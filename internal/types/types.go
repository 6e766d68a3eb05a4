package types

import (
	"context"

	"github.com/xhad/tier0/internal/models"
)

// Tool is one entry of the retrieval tool menu shown to the
// tool-selection provider.
type Tool struct {
	Name        string
	Description string
}

// ToolCall is a provider's decision to invoke one named tool.
type ToolCall struct {
	Name     string
	Question string
}

// Provider is a single external AI vendor: embeddings plus completion,
// optionally with tool selection. Selected once at construction; the
// rest of the engine is provider-agnostic.
type Provider interface {
	Name() string
	// Dimension is the fixed embedding dimension of this provider.
	Dimension() int
	// Embed returns the embedding for one text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Chat sends a prompt and returns the completion text.
	Chat(ctx context.Context, system, prompt string, maxTokens int) (string, error)
	// SelectTools asks the provider to pick tools for a question. An
	// empty slice means the provider declined; ErrToolsUnsupported means
	// the caller should use deterministic routing instead.
	SelectTools(ctx context.Context, question string, tools []Tool) ([]ToolCall, error)
}

// DocumentSource enumerates raw text documents with filenames.
type DocumentSource interface {
	Load(ctx context.Context) ([]models.Document, error)
}

// IPStat is one row of the per-IP request aggregate.
type IPStat struct {
	IPAddress       string  `json:"ip_address"`
	RequestCount    int     `json:"request_count"`
	ErrorCount      int     `json:"error_count"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// StatusStat aggregates error responses by status code.
type StatusStat struct {
	StatusCode int      `json:"status_code"`
	Count      int      `json:"count"`
	IPs        []string `json:"ips"`
}

// EndpointStat is one row of the per-endpoint request aggregate.
type EndpointStat struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

// LogOverview summarizes the whole log table.
type LogOverview struct {
	TotalRequests   int     `json:"total_requests"`
	UniqueIPs       int     `json:"unique_ips"`
	ErrorCount      int     `json:"error_count"`
	AvgResponseTime float64 `json:"avg_response_time"`
	MaxResponseTime int     `json:"max_response_time"`
}

// LogStore serves read-only aggregates over the structured log table.
type LogStore interface {
	TopIPs(ctx context.Context, limit int) ([]IPStat, error)
	ErrorAnalysis(ctx context.Context) ([]StatusStat, error)
	Overview(ctx context.Context) (*LogOverview, error)
	TopEndpoints(ctx context.Context, limit int) ([]EndpointStat, error)
}

// ImageFilter narrows the image metadata query to safety attributes.
// Nil pointer fields are not filtered on.
type ImageFilter struct {
	HardHat    *bool
	SafetyVest *bool
	Inspection *bool
}

// ImageStore serves read-only queries over processed image records.
type ImageStore interface {
	Find(ctx context.Context, filter ImageFilter, limit int) ([]models.ImageInfo, error)
}

// DomainSearcher answers a question within one retrieval domain
// (documents, logs, images). Implementations never return an error for
// a well-formed question; degraded answers carry Synthesized=false.
type DomainSearcher interface {
	Name() string
	Query(ctx context.Context, question string) *models.Result
}
