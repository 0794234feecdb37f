package chat

// Section kinds produced by the segment extractor.
const (
	SectionText  = "text"
	SectionCode  = "code"
	SectionTable = "table"
	SectionThink = "think"
)

// Section classifies one span of a generated response. Start and End are
// byte offsets into the source text. Within a single extraction pass
// sections are disjoint and ordered by Start, and a message's sections
// always describe its current content; they are recomputed wholesale
// whenever the content grows.
type Section struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Start    int    `json:"start_pos"`
	End      int    `json:"end_pos"`
	Raw      string `json:"raw_content,omitempty"`
}
