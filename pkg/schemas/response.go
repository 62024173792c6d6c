package schemas

import "time"

// NLWebResponse is the complete result of a processed NLWebRequest.
type NLWebResponse struct {
	QueryID               string        `json:"query_id"`
	Query                 string        `json:"query"`
	DecontextualizedQuery string        `json:"decontextualized_query"`
	Mode                  Mode          `json:"mode"`
	Results               []NLWebResult `json:"results"`
	Summary               *string       `json:"summary"`
	Site                  string        `json:"site,omitempty"`
	GeneratedAt           time.Time     `json:"generated_at"`
	Warning               string        `json:"warning,omitempty"`
}

// FrameType identifies the kind of a streamed SSE frame, emitted in the
// fixed order defined in spec.md §4.7.
type FrameType string

const (
	FrameQueryID               FrameType = "query_id"
	FrameDecontextualizedQuery FrameType = "decontextualized_query"
	FrameResult                FrameType = "result"
	FrameSummary               FrameType = "summary"
	FrameComplete              FrameType = "complete"
	FrameError                 FrameType = "error"
)

// StreamFrame is a single SSE frame emitted by QueryService.ProcessStream.
type StreamFrame struct {
	Type FrameType   `json:"type"`
	Data interface{} `json:"data"`
}
