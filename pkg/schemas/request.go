package schemas

import "strings"

// Mode controls the shape of an NLWebResponse.
type Mode string

const (
	ModeList      Mode = "list"
	ModeSummarize Mode = "summarize"
	ModeGenerate  Mode = "generate"
)

// ParseMode parses the wire representation of a mode, defaulting to the
// supplied default when the input is empty. An unknown non-empty mode is an
// invalid-argument error, per §6.
func ParseMode(raw string, def Mode) (Mode, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return def, nil
	}
	switch Mode(raw) {
	case ModeList, ModeSummarize, ModeGenerate:
		return Mode(raw), nil
	default:
		return "", ErrInvalidArgument("unknown mode: " + raw)
	}
}

// NLWebRequest is the normalized, validated representation of an incoming
// query. It is constructed on ingress and is treated as immutable once
// QueryProcessor has validated it.
type NLWebRequest struct {
	QueryID                string
	Query                  string
	Mode                   Mode
	Site                   string
	Prev                   []string // prior query ids, in order
	DecontextualizedQuery  string
	DecontextualizedOnIngress bool // true iff the caller supplied DecontextualizedQuery
	Streaming              bool

	// Warning is set by QueryProcessor or ResultGenerator when a component
	// degraded gracefully (e.g. chat-client failure) instead of failing the
	// request outright.
	Warning string
}

// SplitPrev parses the comma-joined `prev` wire field into an ordered list
// of prior query ids, trimming whitespace and dropping empty entries.
func SplitPrev(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
