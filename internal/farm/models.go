package farm

import (
	"fmt"
	"strings"
	"time"

	"github.com/agrosmart/farm-control/internal/common"
)

// ConnectionStatus reports whether the field device is considered reachable.
type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// SensorReading is the latest-known state of the field sensors. A single
// mutable instance lives inside the Service; callers always receive a copy.
type SensorReading struct {
	Temperature      float64          `json:"temperature"`  // °C
	Humidity         float64          `json:"humidity"`     // %
	SoilMoisture     float64          `json:"soilMoisture"` // %
	WaterLevel       float64          `json:"waterLevel"`   // reservoir units
	RainDetected     bool             `json:"rainDetected"`
	PumpRunning      bool             `json:"pumpRunning"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	LastUpdated      time.Time        `json:"lastUpdated"`
}

// Mode gates whether the analysis engine runs.
type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

// ParseMode converts a wire value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAutomatic:
		return ModeAutomatic, nil
	case ModeManual:
		return ModeManual, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrValidation, s)
	}
}

// IrrigationState is the immediate-irrigation state machine position.
type IrrigationState string

const (
	IrrigationStopped   IrrigationState = "stopped"
	IrrigationRunning   IrrigationState = "running"
	IrrigationPaused    IrrigationState = "paused"
	IrrigationScheduled IrrigationState = "scheduled" // a job is due to fire soon
)

// Weekday is a lowercase three-letter weekday tag used in job schedules.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var weekdayByTag = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ParseWeekday accepts "mon", "Monday", "MON" and the like.
func ParseWeekday(s string) (Weekday, error) {
	tag := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if len(tag) > 3 {
		tag = tag[:3]
	}
	if _, ok := weekdayByTag[tag]; !ok {
		return "", fmt.Errorf("%w: unknown weekday %q", ErrValidation, s)
	}
	return tag, nil
}

// Matches reports whether the tag names the given weekday.
func (w Weekday) Matches(d time.Weekday) bool {
	return weekdayByTag[w] == d
}

// IrrigationJob is a recurring irrigation specification evaluated by the
// scheduler loop.
type IrrigationJob struct {
	ID              string    `json:"id"`
	DurationMinutes int       `json:"durationMinutes"`
	Days            []Weekday `json:"daysOfWeek"`
	TimeOfDay       string    `json:"timeOfDay"` // "HH:MM", 24-hour
	CreatedAt       time.Time `json:"createdAt"`
}

// JobSpec is the caller-supplied portion of a job. ID is normally left
// empty and generated; an explicit id that already exists is rejected.
type JobSpec struct {
	ID              string
	DurationMinutes int
	Days            []Weekday
	TimeOfDay       string
}

// IrrigationStatus is a point-in-time snapshot of the irrigation state
// machine. StartedAt and ExpectedEnd are zero unless a run is active.
type IrrigationStatus struct {
	State           IrrigationState `json:"state"`
	PumpRunning     bool            `json:"pumpRunning"`
	DurationMinutes int             `json:"durationMinutes"`
	StartedAt       time.Time       `json:"startedAt"`
	ExpectedEnd     time.Time       `json:"expectedEnd"`
}

// Status is the overall health classification of an assessment.
type Status string

const (
	StatusExcellent      Status = "excellent"       // score >= 90
	StatusGood           Status = "good"            // score >= 75
	StatusFair           Status = "fair"            // score >= 60
	StatusActionRequired Status = "action_required" // score < 60

	// StatusOperational is the fail-safe marker used when evaluation itself
	// failed. Its fixed score of 85 is a signal, not a real measurement.
	StatusOperational Status = "operational"

	// StatusDisabled marks the placeholder returned while in manual mode.
	StatusDisabled Status = "ai_disabled"
)

// FarmAssessment is the throttled, cached output of the analysis engine.
// Never persisted; process lifetime only.
type FarmAssessment struct {
	Timestamp       time.Time `json:"timestamp"`
	Alerts          []string  `json:"alerts"`
	PriorityActions []string  `json:"priorityActions"`
	SystemActions   []string  `json:"systemActions"`
	Recommendations []string  `json:"recommendations"`
	Score           int       `json:"score"` // 0-100
	OverallStatus   Status    `json:"overallStatus"`
	Degraded        bool      `json:"degraded"` // true only on the fail-safe path
}

// RainPause reports whether the assessment recommends suspending irrigation
// because of detected or forecast rain.
func (a FarmAssessment) RainPause() bool {
	for _, action := range a.SystemActions {
		if common.HasAny(action, "Pause irrigation", "Postpone irrigation") {
			return true
		}
	}
	return false
}

// AssessmentResult pairs an assessment with its freshness. RetryIn is the
// remaining throttle window when a cached value was served.
type AssessmentResult struct {
	Assessment FarmAssessment `json:"assessment"`
	Fresh      bool           `json:"fresh"`
	RetryIn    time.Duration  `json:"retryInSeconds"`
}
