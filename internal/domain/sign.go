package domain

// DefaultSign is shown when no rule matches an incident's key phrase.
const DefaultSign = "info"

// SignRule maps an event type and sub type to a display category.
type SignRule struct {
	EventType string
	SubType   string
	Sign      string
}

// SignTable resolves display categories. The first matching rule wins.
type SignTable struct {
	rules []SignRule
}

func NewSignTable(rules []SignRule) SignTable {
	return SignTable{rules: append([]SignRule(nil), rules...)}
}

// Lookup returns the sign for a key phrase, or DefaultSign.
func (t SignTable) Lookup(key SubEvent) string {
	for _, r := range t.rules {
		if r.EventType == key.Type && r.SubType == key.Message {
			return r.Sign
		}
	}
	return DefaultSign
}

// Len returns the number of rules.
func (t SignTable) Len() int {
	return len(t.rules)
}
