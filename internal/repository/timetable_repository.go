package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/pkg/normalize"
)

// timetableFieldCount is the column count of the weekly timetable file:
// day, period, then one column per class.
const timetableFieldCount = 17

// TimetableClassColumns is the fixed class order of the timetable columns,
// starting at column index 2.
var TimetableClassColumns = []string{
	"10A", "10B", "10C",
	"9A", "9B", "9C",
	"8A", "8B", "8C",
	"7A", "7B", "7C",
	"6A", "6B", "6C",
}

// ScheduleModel is the in-memory view of the weekly timetable.
type ScheduleModel struct {
	// ByDay maps day -> period -> normalized teacher names teaching then.
	ByDay map[string]map[int][]string
	// ByTeacher maps a normalized teacher name to every slot they teach.
	ByTeacher map[string][]models.ScheduleEntry
	// RawRows keeps the parsed data rows for fuzzy lookups.
	RawRows [][]string
	// Repaired reports whether the source file needed an in-place repair.
	Repaired bool
}

// TeachersAt returns the normalized names teaching in the given slot.
func (m *ScheduleModel) TeachersAt(day string, period int) []string {
	periods, ok := m.ByDay[normalize.Day(day)]
	if !ok {
		return nil
	}
	return periods[period]
}

// EntriesFor returns every timetable slot taught by the named teacher.
func (m *ScheduleModel) EntriesFor(name string) []models.ScheduleEntry {
	return m.ByTeacher[normalize.Name(name)]
}

// TimetableRepository loads the weekly timetable file.
type TimetableRepository struct {
	path string
}

// NewTimetableRepository constructs a TimetableRepository for the given path.
func NewTimetableRepository(path string) *TimetableRepository {
	return &TimetableRepository{path: path}
}

// Load parses the timetable into a ScheduleModel. The header row is skipped,
// rows without a numeric period are dropped, and cells that are blank or
// read "empty" carry no assignment.
func (r *TimetableRepository) Load(_ context.Context) (*ScheduleModel, error) {
	records, repaired, err := readRepairedCSV(r.path, timetableFieldCount)
	if err != nil {
		return nil, err
	}

	model := &ScheduleModel{
		ByDay:     make(map[string]map[int][]string),
		ByTeacher: make(map[string][]models.ScheduleEntry),
		Repaired:  repaired,
	}

	if len(records) > 0 {
		records = records[1:]
	}
	model.RawRows = records

	for _, row := range records {
		day := normalize.Day(row[0])
		period, convErr := strconv.Atoi(strings.TrimSpace(row[1]))
		if convErr != nil {
			continue
		}

		for col, className := range TimetableClassColumns {
			cell := strings.TrimSpace(row[col+2])
			if cell == "" || strings.EqualFold(cell, "empty") {
				continue
			}
			teacher := normalize.Name(cell)

			if model.ByDay[day] == nil {
				model.ByDay[day] = make(map[int][]string)
			}
			model.ByDay[day][period] = append(model.ByDay[day][period], teacher)

			model.ByTeacher[teacher] = append(model.ByTeacher[teacher], models.ScheduleEntry{
				Day:       day,
				Period:    period,
				ClassName: className,
			})
		}
	}

	return model, nil
}
