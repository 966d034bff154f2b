package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Agency identifies the feed format an incident came from.
type Agency string

const (
	AgencyCARS Agency = "cars"
	AgencyCHP  Agency = "chp"
)

// ParseAgency accepts "cars" or "chp" in any case.
func ParseAgency(s string) (Agency, error) {
	switch a := Agency(strings.ToLower(strings.TrimSpace(s))); a {
	case AgencyCARS, AgencyCHP:
		return a, nil
	default:
		return "", fmt.Errorf("agency %q: want cars or chp", s)
	}
}

// SubEvent is one phrase of an incident, in feed order.
type SubEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Incident is a normalized feed record. Its time-derived validity is the
// only part that changes after construction.
type Incident struct {
	MessageID      string
	Agency         Agency
	Roadway        string
	Start          PlanarPoint
	End            *PlanarPoint
	Time           EventTime
	Events         []SubEvent // lead event first
	AdditionalText string
	Area           string // CHP area, e.g. "Stockton"
	Sign           string
}

// Lead returns the first sub-event, if any.
func (i Incident) Lead() (SubEvent, bool) {
	if len(i.Events) == 0 {
		return SubEvent{}, false
	}
	return i.Events[0], true
}

// RoadName renders the roadway with its direction: "NB 94",
// "94 in both directions" or the bare roadway.
func (i Incident) RoadName() string {
	if !i.Start.Resolved {
		return ""
	}
	switch i.Start.Direction {
	case NorthSouth, EastWest:
		return i.Roadway + " in both directions"
	case Unknown:
		return i.Roadway
	default:
		return i.Start.Direction.Abbrev() + " " + i.Roadway
	}
}

// Phrases joins the sub-event messages with dashes spaced out and the
// first letter capitalized.
func (i Incident) Phrases() string {
	msgs := make([]string, 0, len(i.Events))
	for _, ev := range i.Events {
		if ev.Message == "" {
			continue
		}
		msgs = append(msgs, strings.ReplaceAll(ev.Message, "-", " "))
	}
	return capitalize(strings.Join(msgs, ", "))
}

// Description renders the incident as a sentence, e.g.
// "Right lane closed on NB 94 from MP 15 N of Main St to Elm St since ...".
func (i Incident) Description(now time.Time) string {
	var b strings.Builder
	if i.Agency == AgencyCHP {
		if lead, ok := i.Lead(); ok {
			b.WriteString(lead.Message)
		}
	} else {
		b.WriteString(i.Phrases())
	}
	if i.AdditionalText != "" {
		b.WriteString(", ")
		b.WriteString(i.AdditionalText)
	}
	if road := i.RoadName(); road != "" {
		b.WriteString(" on ")
		b.WriteString(road)
	}
	if i.End != nil {
		fmt.Fprintf(&b, " from %s to %s", i.Start, *i.End)
	} else {
		fmt.Fprintf(&b, " at %s", i.Start)
	}
	if i.Area != "" {
		b.WriteString(", ")
		b.WriteString(i.Area)
	}
	if i.Time != nil {
		b.WriteString(" ")
		b.WriteString(i.Time.Describe(now))
	}
	b.WriteString(".")
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
