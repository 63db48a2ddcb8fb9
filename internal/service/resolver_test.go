package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
)

func TestPeriodSetDedupeAndPinning(t *testing.T) {
	set := newPeriodSet()

	set.add(models.ResolvedPeriod{Period: 1, ClassName: "10A", Source: models.PeriodSourceClassMap})
	set.add(models.ResolvedPeriod{Period: 1, ClassName: "10A", Source: models.PeriodSourceSchedule})

	set.add(models.ResolvedPeriod{Period: 2, ClassName: "10B", Source: models.PeriodSourceSpecial})
	set.add(models.ResolvedPeriod{Period: 2, ClassName: "10B", Source: models.PeriodSourceSchedule})

	set.add(models.ResolvedPeriod{Period: 0, ClassName: "10C", Source: models.PeriodSourceScan})
	set.add(models.ResolvedPeriod{Period: 3, ClassName: "", Source: models.PeriodSourceScan})

	got := set.list()
	require.Len(t, got, 2)
	assert.Equal(t, models.PeriodSourceSchedule, got[0].Source)
	assert.Equal(t, models.PeriodSourceSpecial, got[1].Source)
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, 3, parsePeriod(" 3 "))
	assert.Equal(t, 12, parsePeriod("12"))
	assert.Equal(t, 0, parsePeriod(""))
	assert.Equal(t, 0, parsePeriod("2b"))
	assert.Equal(t, 0, parsePeriod("-1"))
	assert.Equal(t, 0, parsePeriod("0"))
}

// logByAction returns the first trail entry with the given action.
func logByAction(t *testing.T, logs []models.ProcessLog, action string) models.ProcessLog {
	t.Helper()
	for _, entry := range logs {
		if entry.Action == action {
			return entry
		}
	}
	t.Fatalf("no %q entry in trail", action)
	return models.ProcessLog{}
}

func TestResolveOverrideTableAddsPinnedPeriods(t *testing.T) {
	f := newEngineFixture(t)
	f.timetable = simpleTimetable(
		timetableRow("Monday", 1, map[string]string{"10A": "Smith"}),
	)
	f.roster = "Doe,555-1111,\n"
	f.overrides = `{"overrides":[{"teacher":"Smith","day":"mon","periods":[{"period":7,"className":"6A"}]}]}`
	engine, _ := f.build(t)

	result, err := engine.AutoAssignSubstitutes(context.Background(), mondayDate, []string{"Smith"})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 2)
	assert.Equal(t, 7, result.Assignments[0].Period)
	assert.Equal(t, "6A", result.Assignments[0].ClassName)
	assert.Equal(t, 1, result.Assignments[1].Period)
	assert.Equal(t, "10A", result.Assignments[1].ClassName)
}

func TestResolveDeclaredScheduleOnly(t *testing.T) {
	f := newEngineFixture(t)
	f.timetable = simpleTimetable(
		timetableRow("Monday", 1, map[string]string{"10A": "Other"}),
	)
	f.roster = "Doe,555-1111,\n"
	f.declared = `{"teachers":[{"name":"Sari Dewi","schedule":[{"day":"monday","period":2,"className":"9B"}]}]}`
	engine, _ := f.build(t)

	result, err := engine.AutoAssignSubstitutes(context.Background(), mondayDate, []string{"Sari Dewi"})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, 2, result.Assignments[0].Period)
	assert.Equal(t, "9B", result.Assignments[0].ClassName)
	assert.Empty(t, result.Warnings)
}

func TestResolveThroughNameVariation(t *testing.T) {
	f := newEngineFixture(t)
	f.timetable = simpleTimetable(
		timetableRow("Monday", 1, map[string]string{"10A": "Other"}),
	)
	f.roster = "Doe,555-1111,\n"
	f.declared = `{"teachers":[{"name":"Sari Dewi","variations":["Ibu Sari"],"schedule":[{"day":"monday","period":3,"className":"8C"}]}]}`
	engine, _ := f.build(t)

	result, err := engine.AutoAssignSubstitutes(context.Background(), mondayDate, []string{"Ibu Sari"})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, 3, result.Assignments[0].Period)
	assert.Equal(t, "8C", result.Assignments[0].ClassName)
}

func TestResolveScanFallbackMatchesNamePrefix(t *testing.T) {
	f := newEngineFixture(t)
	f.timetable = simpleTimetable(
		timetableRow("Monday", 1, map[string]string{"10B": "Smith Anderson"}),
	)
	f.roster = "Doe,555-1111,\n"
	engine, _ := f.build(t)

	// Exact lookups miss the suffixed name; the raw scan still matches the
	// first five characters.
	result, err := engine.AutoAssignSubstitutes(context.Background(), mondayDate, []string{"Smith Anderson Jr"})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, 1, result.Assignments[0].Period)
	assert.Equal(t, "10B", result.Assignments[0].ClassName)

	// A productive scan is a normal resolution step, not a problem.
	assert.Equal(t, models.LogStatusInfo, logByAction(t, result.Logs, "resolve-scan").Status)
}

func TestResolveScanMissLogsWarning(t *testing.T) {
	f := newEngineFixture(t)
	f.timetable = simpleTimetable(
		timetableRow("Monday", 1, map[string]string{"10A": "Other"}),
	)
	f.roster = "Doe,555-1111,\n"
	engine, _ := f.build(t)

	result, err := engine.AutoAssignSubstitutes(context.Background(), mondayDate, []string{"Nobody Known"})
	require.NoError(t, err)

	assert.Empty(t, result.Assignments)
	assert.Equal(t, models.LogStatusWarning, logByAction(t, result.Logs, "resolve-scan").Status)
}

func TestResolveScanSkippedWhenTimetableMatches(t *testing.T) {
	f := newEngineFixture(t)
	f.timetable = simpleTimetable(
		timetableRow("Monday", 1, map[string]string{"10A": "Smith", "10B": "Smithson"}),
	)
	f.roster = "Doe,555-1111,\nRoe,555-2222,\n"
	engine, _ := f.build(t)

	result, err := engine.AutoAssignSubstitutes(context.Background(), mondayDate, []string{"Smith"})
	require.NoError(t, err)

	// An exact class-map hit suppresses the scan, so Smithson's class is
	// never picked up by the prefix match.
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "10A", result.Assignments[0].ClassName)
}
