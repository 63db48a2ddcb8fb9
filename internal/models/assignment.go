package models

// PeriodSource identifies which resolution strategy produced a period.
type PeriodSource string

const (
	PeriodSourceSpecial   PeriodSource = "special"
	PeriodSourceClassMap  PeriodSource = "class-map"
	PeriodSourceSchedule  PeriodSource = "schedule"
	PeriodSourceVariation PeriodSource = "variation"
	PeriodSourceScan      PeriodSource = "timetable-scan"
)

// ScheduleEntry is one taught slot: a weekday, a period number and the class
// being taught. Declared teacher schedules and the timetable-derived views
// share this shape.
type ScheduleEntry struct {
	Day       string `json:"day"`
	Period    int    `json:"period"`
	ClassName string `json:"className"`
}

// ResolvedPeriod is one period an absent teacher must be covered for,
// annotated with the strategy that found it.
type ResolvedPeriod struct {
	Period    int          `json:"period"`
	ClassName string       `json:"className"`
	Source    PeriodSource `json:"source"`
}

// SubstituteAssignment records one period of cover.
type SubstituteAssignment struct {
	OriginalTeacher string `json:"originalTeacher"`
	Period          int    `json:"period"`
	ClassName       string `json:"className"`
	Substitute      string `json:"substitute"`
	SubstitutePhone string `json:"substitutePhone,omitempty"`
}

// RunResult is the complete outcome of one allocation run.
type RunResult struct {
	Date        string                 `json:"date"`
	Day         string                 `json:"day"`
	Assignments []SubstituteAssignment `json:"assignments"`
	Warnings    []string               `json:"warnings"`
	Logs        []ProcessLog           `json:"logs"`
}
