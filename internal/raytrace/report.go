package raytrace

import (
	"go.uber.org/zap"

	"github.com/Faultbox/tribag/internal/logger"
)

// EventKind classifies a diagnostic event.
type EventKind int

const (
	// EventBadIndex: a face referenced a vertex that does not exist and was
	// skipped at prepare time.
	EventBadIndex EventKind = iota
	// EventDegenerateFace: a face was collinear or had coincident vertices
	// and was skipped at prepare time.
	EventDegenerateFace
	// EventBadNormals: a face's vertex normal indices were out of range; the
	// face is kept with flat shading.
	EventBadNormals
	// EventMergedHits: coincident hits were merged.
	EventMergedHits
	// EventGraze: a coincident entry and exit were kept as a graze.
	EventGraze
	// EventOddHits: an oriented solid produced an odd hit count.
	EventOddHits
	// EventFictitiousHit: a hit was synthesized to repair the hit sequence.
	EventFictitiousHit
	// EventDroppedHit: an unmatched leading exit or trailing entry was
	// dropped.
	EventDroppedHit
)

var eventNames = [...]string{
	EventBadIndex:       "bad_index",
	EventDegenerateFace: "degenerate_face",
	EventBadNormals:     "bad_normals",
	EventMergedHits:     "merged_hits",
	EventGraze:          "graze",
	EventOddHits:        "odd_hits",
	EventFictitiousHit:  "fictitious_hit",
	EventDroppedHit:     "dropped_hit",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a geometric edge case resolved locally.
type Event struct {
	Kind   EventKind
	Face   int // -1 when not tied to one face
	Dist   float64
	Count  int
	Detail string
}

// Reporter receives diagnostic events. Implementations must be safe for
// concurrent use: rays are shot from many goroutines.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) {
	f(e)
}

type logReporter struct {
	log *zap.Logger
}

// NewLogReporter returns a Reporter writing to l. Hit repairs are logged
// as warnings, routine merges at debug level.
func NewLogReporter(l *zap.Logger) Reporter {
	return &logReporter{log: l}
}

func (r *logReporter) Report(e Event) {
	fields := []zap.Field{
		zap.Stringer("kind", e.Kind),
		zap.Int("face", e.Face),
	}
	if e.Dist != 0 {
		fields = append(fields, zap.Float64("dist", e.Dist))
	}
	if e.Count != 0 {
		fields = append(fields, zap.Int("count", e.Count))
	}
	msg := e.Detail
	if msg == "" {
		msg = e.Kind.String()
	}

	switch e.Kind {
	case EventMergedHits, EventGraze:
		r.log.Debug(msg, fields...)
	default:
		r.log.Warn(msg, fields...)
	}
}

func defaultReporter() Reporter {
	return NewLogReporter(logger.Sampled(logger.Named("raytrace")))
}
