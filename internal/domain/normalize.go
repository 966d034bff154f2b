package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one incident as read from a feed, before normalization.
// CARS records carry milepost locations in microdegrees; CHP records carry
// a Thomas Brothers pair and a dispatch center.
type RawRecord struct {
	MessageID      string       `json:"message_id"`
	Roadway        string       `json:"roadway"`
	LinkDirection  string       `json:"link_direction,omitempty"`
	Primary        *RawLocation `json:"primary_location,omitempty"`
	Secondary      *RawLocation `json:"secondary_location,omitempty"`
	KeyPhrase      *SubEvent    `json:"key_phrase,omitempty"`
	Events         []SubEvent   `json:"events"`
	AdditionalText string       `json:"additional_text,omitempty"`
	Time           RawEventTime `json:"time"`

	CenterID     string `json:"center_id,omitempty"`
	LogType      string `json:"log_type,omitempty"` // e.g. "1125A - Traffic Hazard - Animal"
	LocationDesc string `json:"location,omitempty"` // e.g. "NB SR99 JSO S UNION AV"
	Area         string `json:"area,omitempty"`
	SurveyXY     string `json:"tbxy,omitempty"` // e.g. "6736155:1629797"
}

// RawLocation is a CARS link location.
type RawLocation struct {
	Latitude        string `json:"latitude"`  // microdegrees
	Longitude       string `json:"longitude"` // microdegrees
	LinearReference string `json:"linear_reference"`
}

// RawCoordinates is any source coordinate, geographic or survey.
type RawCoordinates struct {
	Latitude  string
	Longitude string
	SurveyXY  string
	CenterID  string
}

// RawEventTime holds the time fields of either feed format.
type RawEventTime struct {
	StartTime          string `json:"start_time,omitempty"`
	ExpectedEndTime    string `json:"expected_end_time,omitempty"`
	EstimatedDuration  string `json:"estimated_duration,omitempty"` // minutes
	Recurrent          bool   `json:"recurrent,omitempty"`
	ScheduleTimes      string `json:"schedule_times,omitempty"` // "HHMMHHMM"
	DaysOfWeek         string `json:"days_of_week,omitempty"`   // weekday bit mask
	EffectiveQualifier string `json:"effective_qualifier,omitempty"`
	LogTime            string `json:"log_time,omitempty"`
}

// NormalizerConfig configures a Normalizer.
type NormalizerConfig struct {
	Agency   Agency
	Routes   *RouteIndex // required for CARS
	Signs    SignTable
	Location *time.Location // feed wall clock, defaults to time.Local
	Logger   *slog.Logger
	// OnZoneFallback, when set, is called for every unmapped dispatch center.
	OnZoneFallback func(centerID string)
}

// Normalizer turns raw feed records into Incidents. It only reads its
// reference data and is safe for concurrent use.
type Normalizer struct {
	agency         Agency
	routes         *RouteIndex
	signs          SignTable
	loc            *time.Location
	logger         *slog.Logger
	onZoneFallback func(string)
}

func NewNormalizer(cfg NormalizerConfig) (*Normalizer, error) {
	if _, err := ParseAgency(string(cfg.Agency)); err != nil {
		return nil, err
	}
	if cfg.Agency == AgencyCARS && cfg.Routes == nil {
		return nil, errors.New("cars normalizer: route index is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Normalizer{
		agency:         cfg.Agency,
		routes:         cfg.Routes,
		signs:          cfg.Signs,
		loc:            cfg.Location,
		logger:         cfg.Logger,
		onZoneFallback: cfg.OnZoneFallback,
	}, nil
}

// Agency returns the feed format this normalizer reads.
func (n *Normalizer) Agency() Agency {
	return n.agency
}

// Normalize builds an Incident from one record. Errors are wrapped in a
// RecordError identifying the record.
func (n *Normalizer) Normalize(rec RawRecord) (Incident, error) {
	var (
		inc Incident
		err error
	)
	if n.agency == AgencyCHP {
		inc, err = n.normalizeCHP(rec)
	} else {
		inc, err = n.normalizeCARS(rec)
	}
	if err != nil {
		return Incident{}, &RecordError{MessageID: rec.MessageID, Route: rec.Roadway, Err: err}
	}
	return inc, nil
}

func (n *Normalizer) normalizeCARS(rec RawRecord) (Incident, error) {
	if strings.TrimSpace(rec.Roadway) == "" {
		return Incident{}, fmt.Errorf("roadway: %w", ErrMissingField)
	}
	et, err := n.EvaluateTime(rec.Time)
	if err != nil {
		return Incident{}, err
	}

	inc := Incident{
		MessageID:      rec.MessageID,
		Agency:         AgencyCARS,
		Roadway:        rec.Roadway,
		Time:           et,
		Events:         append([]SubEvent(nil), rec.Events...),
		AdditionalText: strings.TrimSpace(rec.AdditionalText),
	}

	key := rec.KeyPhrase
	if key == nil && len(rec.Events) > 0 {
		key = &rec.Events[0]
	}
	inc.Sign = DefaultSign
	if key != nil {
		inc.Sign = n.signs.Lookup(*key)
	}

	// A record without a link location stays unresolved and is rejected
	// by the validator rather than failing here.
	if rec.Primary != nil {
		start, err := n.carsLocation(rec.Roadway, *rec.Primary, false, rec.LinkDirection)
		if err != nil {
			return Incident{}, fmt.Errorf("primary location: %w", err)
		}
		inc.Start = start
		if rec.Secondary != nil {
			end, err := n.carsLocation(rec.Roadway, *rec.Secondary, true, rec.LinkDirection)
			if err != nil {
				return Incident{}, fmt.Errorf("secondary location: %w", err)
			}
			inc.End = &end
		}
	}

	if inc.MessageID == "" {
		inc.MessageID = incidentID(AgencyCARS, rec.Roadway, inc.Start.Name, rec.Time.StartTime)
	}
	return inc, nil
}

func (n *Normalizer) carsLocation(route string, raw RawLocation, extent bool, linkDir string) (PlanarPoint, error) {
	p, err := n.ConvertCoordinates(RawCoordinates{Latitude: raw.Latitude, Longitude: raw.Longitude})
	if err != nil {
		return PlanarPoint{}, err
	}
	linear, err := ParseLinear(raw.LinearReference)
	if err != nil {
		return PlanarPoint{}, err
	}
	named, err := n.BuildLocation(route, linear, extent)
	if err != nil {
		return PlanarPoint{}, err
	}
	p.Linear = named.Linear
	p.Name = named.Name
	p.Metro = named.Metro
	p.Direction = TravelDirection(linkDir, named.Direction)
	return p, nil
}

func (n *Normalizer) normalizeCHP(rec RawRecord) (Incident, error) {
	et, err := n.EvaluateTime(rec.Time)
	if err != nil {
		return Incident{}, err
	}
	start, err := n.ConvertCoordinates(RawCoordinates{SurveyXY: rec.SurveyXY, CenterID: rec.CenterID})
	if err != nil {
		return Incident{}, err
	}
	start.Name = strings.TrimSpace(rec.LocationDesc)
	start.Direction = DirectionFromText(rec.LocationDesc)
	start.Metro = true

	logType := strings.TrimSpace(rec.LogType)
	events := make([]SubEvent, 0, len(rec.Events)+1)
	if logType != "" {
		events = append(events, SubEvent{Type: "incident", Message: logType})
	}
	events = append(events, rec.Events...)

	inc := Incident{
		MessageID: rec.MessageID,
		Agency:    AgencyCHP,
		Roadway:   rec.Roadway,
		Start:     start,
		Time:      et,
		Events:    events,
		Area:      strings.TrimSpace(rec.Area),
		Sign:      DefaultSign,
	}
	if len(events) > 0 {
		inc.Sign = n.signs.Lookup(events[0])
	}
	if inc.MessageID == "" {
		inc.MessageID = incidentID(AgencyCHP, rec.CenterID, rec.SurveyXY, rec.Time.LogTime)
	}
	return inc, nil
}

// BuildLocation names a route-relative mile and fills in the metro flag
// and the default bearing of the nearest milepost. The returned point
// carries no planar coordinates.
func (n *Normalizer) BuildLocation(route string, linear float64, extent bool) (PlanarPoint, error) {
	if n.routes == nil {
		return PlanarPoint{}, fmt.Errorf("lookup %s: %w", route, ErrUnknownRoute)
	}
	name, err := n.routes.Lookup(route, linear, extent)
	if err != nil {
		return PlanarPoint{}, err
	}
	return PlanarPoint{
		Linear:    linear,
		Name:      name.Label,
		Direction: n.routes.DefaultDirection(route, linear),
		Metro:     n.routes.Metro(route, linear),
	}, nil
}

// ConvertCoordinates projects raw coordinates to UTM. Geographic
// coordinates win when present; otherwise a survey pair is converted in
// the zone of its dispatch center. With neither, the point is returned
// unresolved and no error.
func (n *Normalizer) ConvertCoordinates(c RawCoordinates) (PlanarPoint, error) {
	if strings.TrimSpace(c.Latitude) != "" || strings.TrimSpace(c.Longitude) != "" {
		lat, err := ParseMicrodegrees(c.Latitude)
		if err != nil {
			return PlanarPoint{}, fmt.Errorf("latitude: %w", err)
		}
		lon, err := ParseMicrodegrees(c.Longitude)
		if err != nil {
			return PlanarPoint{}, fmt.Errorf("longitude: %w", err)
		}
		if lat < -90 || lat > 90 {
			return PlanarPoint{}, fmt.Errorf("latitude %v: %w: out of range", lat, ErrMalformedCoordinate)
		}
		return LatLonToPlanar(lat, lon), nil
	}

	x, y, ok, err := ParseSurveyXY(c.SurveyXY)
	if err != nil {
		return PlanarPoint{}, err
	}
	if !ok {
		return PlanarPoint{}, nil
	}
	zone, err := ResolveSurveyZone(c.CenterID)
	if err != nil {
		n.logger.Warn("unmapped dispatch center, using default survey zone",
			"center_id", c.CenterID,
			"zone", zone.String(),
			"error_kind", ErrorKind(err),
		)
		if n.onZoneFallback != nil {
			n.onZoneFallback(c.CenterID)
		}
	}
	return LocalSurveyToPlanar(x, y, zone)
}

// EvaluateTime builds the event time window for this normalizer's agency.
func (n *Normalizer) EvaluateTime(f RawEventTime) (EventTime, error) {
	if n.agency == AgencyCHP {
		return NewSimpleTimestamp(f.LogTime, n.loc)
	}
	return n.schedule(f)
}

func (n *Normalizer) schedule(f RawEventTime) (RecurringSchedule, error) {
	if strings.TrimSpace(f.StartTime) == "" {
		return RecurringSchedule{}, fmt.Errorf("start time: %w: %w", ErrTimeParse, ErrMissingField)
	}
	start, err := ParseCARSTime(f.StartTime)
	if err != nil {
		return RecurringSchedule{}, err
	}
	s := RecurringSchedule{Start: start, Recurrent: f.Recurrent, Location: n.loc}

	if strings.TrimSpace(f.ExpectedEndTime) != "" {
		if s.End, err = ParseCARSTime(f.ExpectedEndTime); err != nil {
			return RecurringSchedule{}, err
		}
	}
	if d := strings.TrimSpace(f.EstimatedDuration); d != "" {
		if s.DurationMinutes, err = strconv.Atoi(d); err != nil || s.DurationMinutes < 0 {
			return RecurringSchedule{}, fmt.Errorf("duration %q: %w", d, ErrTimeParse)
		}
	}
	if !f.Recurrent {
		return s, nil
	}

	if s.DailyStart, s.DailyEnd, err = ParseScheduleTimes(f.ScheduleTimes); err != nil {
		return RecurringSchedule{}, err
	}
	if d := strings.TrimSpace(f.DaysOfWeek); d != "" {
		mask, err := strconv.ParseUint(d, 10, 8)
		if err != nil || mask > uint64(MaskDaily) {
			return RecurringSchedule{}, fmt.Errorf("days of week %q: %w", d, ErrTimeParse)
		}
		s.Days = WeekdayMask(mask)
	}
	s.Qualifier = ParseQualifier(f.EffectiveQualifier)
	return s, nil
}
