package core

// ResultKind tags the variant held by a CategoryResult.
type ResultKind int

const (
	// ResultNarrative holds blended text and the URLs it was drawn from.
	ResultNarrative ResultKind = iota + 1
	// ResultItemized holds a list of extracted entities.
	ResultItemized
	// ResultRaw holds reply text that could not be decoded.
	ResultRaw
)

func (k ResultKind) String() string {
	switch k {
	case ResultNarrative:
		return "narrative"
	case ResultItemized:
		return "itemized"
	case ResultRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// CategoryResult is the refined output for one category. Only the fields
// belonging to Kind are meaningful.
type CategoryResult struct {
	Kind    ResultKind
	Content string   // ResultNarrative
	URLs    []string // ResultNarrative
	Items   []Item   // ResultItemized
	Text    string   // ResultRaw
}

func NewNarrative(content string, urls []string) CategoryResult {
	if urls == nil {
		urls = []string{}
	}
	return CategoryResult{Kind: ResultNarrative, Content: content, URLs: urls}
}

func NewItemized(items []Item) CategoryResult {
	if items == nil {
		items = []Item{}
	}
	return CategoryResult{Kind: ResultItemized, Items: items}
}

func NewRaw(text string) CategoryResult {
	return CategoryResult{Kind: ResultRaw, Text: text}
}

// Empty returns the empty result for a policy.
func Empty(policy Policy) CategoryResult {
	if policy == PolicyItemized {
		return NewItemized(nil)
	}
	return NewNarrative("", nil)
}

// Value returns the persisted form of the result.
func (r CategoryResult) Value() any {
	switch r.Kind {
	case ResultNarrative:
		return map[string]any{
			"content": r.Content,
			"urls":    r.URLs,
		}
	case ResultItemized:
		return map[string]any{
			"items": r.Items,
		}
	default:
		return r.Text
	}
}
