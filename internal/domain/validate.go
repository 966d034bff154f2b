package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Rejection reasons, in the order the checks run.
const (
	ReasonUnresolvedLocation = "unresolved_location"
	ReasonOutOfRegion        = "out_of_region"
	ReasonTimeInactive       = "time_inactive"
	ReasonEventClass         = "event_class"
)

var (
	rampClosureRe     = regexp.MustCompile(`ramp`)
	shoulderClosureRe = regexp.MustCompile(`shoulder`)
)

// Verdict is the outcome of validating one incident.
type Verdict struct {
	Accepted bool
	Reason   string // empty when accepted
}

func accept() Verdict { return Verdict{Accepted: true} }

func reject(reason string) Verdict { return Verdict{Reason: reason} }

// Validator decides whether an incident is publishable. The set of
// implementations is closed: CARSValidator and CHPValidator differ only in
// how they test that a location is in scope.
type Validator interface {
	// Validate checks the incident against the package clock.
	Validate(inc Incident) (Verdict, error)
	// ValidateAt checks the incident as of now.
	ValidateAt(inc Incident, now time.Time) (Verdict, error)
	inScope(p PlanarPoint) bool
}

// CARSValidator accepts locations flagged metro by the route index.
type CARSValidator struct{}

// CHPValidator accepts locations inside Region.
type CHPValidator struct {
	Region Region
}

// NewValidator returns the validator variant for agency. region is used by
// the CHP variant only; an empty region falls back to D10Region.
func NewValidator(agency Agency, region Region) (Validator, error) {
	switch agency {
	case AgencyCARS:
		return CARSValidator{}, nil
	case AgencyCHP:
		if region.Empty() {
			region = D10Region()
		}
		return CHPValidator{Region: region}, nil
	default:
		return nil, fmt.Errorf("validator for agency %q: unsupported", agency)
	}
}

func (v CARSValidator) Validate(inc Incident) (Verdict, error) { return validate(v, inc, Now()) }

func (v CARSValidator) ValidateAt(inc Incident, now time.Time) (Verdict, error) {
	return validate(v, inc, now)
}

func (CARSValidator) inScope(p PlanarPoint) bool { return p.Metro }

func (v CHPValidator) Validate(inc Incident) (Verdict, error) { return validate(v, inc, Now()) }

func (v CHPValidator) ValidateAt(inc Incident, now time.Time) (Verdict, error) {
	return validate(v, inc, now)
}

func (v CHPValidator) inScope(p PlanarPoint) bool { return p.ValidIn(v.Region) }

// validate runs the checks in order and stops at the first failure. An
// incident with no sub-events is a feed defect and yields an error.
func validate(v Validator, inc Incident, now time.Time) (Verdict, error) {
	if len(inc.Events) == 0 {
		return Verdict{}, &RecordError{MessageID: inc.MessageID, Route: inc.Roadway, Err: ErrEmptyEventList}
	}
	if !inc.Start.Resolved {
		return reject(ReasonUnresolvedLocation), nil
	}
	if !v.inScope(inc.Start) || (inc.End != nil && !v.inScope(*inc.End)) {
		return reject(ReasonOutOfRegion), nil
	}
	if inc.Time == nil || !inc.Time.ValidAt(now) {
		return reject(ReasonTimeInactive), nil
	}
	if !eventAccepted(inc.Events) {
		return reject(ReasonEventClass), nil
	}
	return accept(), nil
}

// eventAccepted applies the classification rules: any "flooding" message,
// a lead "incident", or a lead "roadwork" followed by a closure that is
// neither a ramp nor a shoulder closure.
func eventAccepted(events []SubEvent) bool {
	for _, ev := range events {
		if ev.Message == "flooding" {
			return true
		}
	}
	switch events[0].Type {
	case "incident":
		return true
	case "roadwork":
		for _, ev := range events[1:] {
			if ev.Type != "closures" {
				continue
			}
			if !rampClosureRe.MatchString(ev.Message) && !shoulderClosureRe.MatchString(ev.Message) {
				return true
			}
		}
	}
	return false
}
