package models

// Document is one raw text document loaded from the document source.
// Documents are created once during ingestion and never mutated.
type Document struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Text      string `json:"text"`
	PageCount int    `json:"page_count,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// Chunk is a fixed-size overlapping span of a document's text. The
// ordinal position of a chunk in the index equals its row in the
// embedding matrix.
type Chunk struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	Year    int    `json:"year,omitempty"`
	ChunkID string `json:"chunk_id"`
}

// Match types for retrieval candidates.
const (
	MatchVector  = "vector"
	MatchPattern = "pattern"
	MatchKeyword = "keyword"
)

// Candidate is one retrieval hit produced at query time. Candidates from
// the three retrieval paths are comparable through Relevance.
type Candidate struct {
	Text            string  `json:"text"`
	Source          string  `json:"source"`
	Year            int     `json:"year,omitempty"`
	ChunkID         string  `json:"chunk_id,omitempty"`
	Relevance       float64 `json:"relevance"`
	MatchType       string  `json:"match_type"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
	Rank            int     `json:"rank,omitempty"`
	HasNumbers      bool    `json:"has_numbers,omitempty"`
}

// Routing methods.
const (
	RoutingAI      = "ai_function_calling"
	RoutingKeyword = "keyword_fallback"
)

// RoutingDecision records which domain tools a query was dispatched to
// and how that choice was made.
type RoutingDecision struct {
	ToolsCalled []string `json:"tools_called"`
	Method      string   `json:"method"`
}

// Result types.
const (
	TypeDocuments     = "documents"
	TypeLogAnalysis   = "log_analysis"
	TypeImageAnalysis = "image_analysis"
	TypeCombined      = "combined_safety_analysis"
	TypeMultiSource   = "multi_source_ai_routing"
	TypeClarification = "clarification"
	TypeSuggestion    = "suggestion"
	TypeNoMatch       = "no_match"
)

// Result is the answer envelope returned for one question. Fields are
// populated per result type; a combined safety answer carries both
// document sources and image records.
type Result struct {
	Answer        string      `json:"answer"`
	Sources       []Candidate `json:"sources,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	DocSources    []Candidate `json:"bp_sources,omitempty"`
	ImageData     []ImageInfo `json:"image_data,omitempty"`
	Sites         []string    `json:"sites,omitempty"`
	Count         int         `json:"count,omitempty"`
	AvgCompliance float64     `json:"avg_compliance,omitempty"`
	Type          string      `json:"type"`
	Synthesized   bool        `json:"synthesized"`
	RoutingMethod string      `json:"routing_method,omitempty"`
	ToolsCalled   []string    `json:"tools_called,omitempty"`
	ToolUsed      string      `json:"tool_used,omitempty"`
}

// ImageInfo is one processed site-camera record from the image
// metadata store.
type ImageInfo struct {
	Filename   string           `json:"filename"`
	DeviceType string           `json:"device_type"`
	Keywords   []string         `json:"keywords,omitempty"`
	Compliance ComplianceRecord `json:"safety_compliance"`
}

// ComplianceRecord is the safety assessment attached to an image.
type ComplianceRecord struct {
	HasHardHat      bool    `json:"has_hard_hat"`
	HasSafetyVest   bool    `json:"has_safety_vest"`
	HasInspection   bool    `json:"has_inspection_equipment"`
	ComplianceScore float64 `json:"compliance_score"`
}

// LogEntry is one parsed access-log line.
type LogEntry struct {
	IPAddress    string `json:"ip_address"`
	Timestamp    string `json:"timestamp"`
	Method       string `json:"method"`
	Endpoint     string `json:"endpoint"`
	StatusCode   int    `json:"status_code"`
	ResponseSize int    `json:"response_size"`
	Referer      string `json:"referer,omitempty"`
	UserAgent    string `json:"user_agent"`
	ResponseTime int    `json:"response_time"`
}
