package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/internal/repository"
	"github.com/noah-isme/substitution-api/pkg/config"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/normalize"
)

const runDateLayout = "2006-01-02"

type timetableSource interface {
	Load(ctx context.Context) (*repository.ScheduleModel, error)
}

type rosterSource interface {
	Load(ctx context.Context) ([]models.Teacher, bool, error)
}

type declaredSource interface {
	Load(ctx context.Context) (*repository.DeclaredSet, error)
}

type overrideSource interface {
	Load(ctx context.Context) (*repository.OverrideSet, error)
}

type runStateStore interface {
	SaveAssignments(ctx context.Context, assignments []models.SubstituteAssignment) error
	GetAssignments(ctx context.Context) ([]models.SubstituteAssignment, error)
	SaveLogs(ctx context.Context, date string, entries []models.ProcessLog) error
	SaveWarnings(ctx context.Context, date string, warnings []string) error
}

type runRecorder interface {
	Record(ctx context.Context, result *models.RunResult) (int64, error)
}

type resultCache interface {
	InvalidateAssignments(ctx context.Context, date string) error
}

// engineData is the consolidated view of all source files for one load.
type engineData struct {
	model     *repository.ScheduleModel
	directory map[string]models.Teacher
	order     []string
	pool      []models.Teacher
	declared  map[string][]models.ScheduleEntry
	overrides map[string]map[string][]models.ResolvedPeriod
}

func (d *engineData) overridesFor(name, day string) []models.ResolvedPeriod {
	byDay, ok := d.overrides[name]
	if !ok {
		return nil
	}
	return byDay[day]
}

// variationsFor returns every alternate normalized key the named teacher is
// known under, excluding the queried key itself.
func (d *engineData) variationsFor(name string) []string {
	rec, ok := d.directory[name]
	if !ok {
		return nil
	}
	seen := map[string]bool{name: true}
	var keys []string
	for _, alias := range append([]string{rec.Name}, rec.Variations...) {
		key := normalize.Name(alias)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// runState keeps what verification needs from the last completed run.
type runState struct {
	date        string
	day         string
	assignments []models.SubstituteAssignment
	workload    map[string]int
	data        *engineData
}

// AssignmentService is the allocation engine: it loads the source files,
// resolves the periods of absent teachers, assigns substitutes under the
// workload caps and persists the outcome with a full diagnostic trail.
type AssignmentService struct {
	timetable timetableSource
	roster    rosterSource
	schedules declaredSource
	overrides overrideSource
	state     runStateStore

	history runRecorder
	cache   resultCache
	metrics *MetricsService

	cfg    config.EngineConfig
	logger *zap.Logger

	mu      sync.Mutex
	data    *engineData
	lastRun *runState
}

// NewAssignmentService creates the engine. Zero config values fall back to
// the documented defaults.
func NewAssignmentService(
	timetable timetableSource,
	roster rosterSource,
	schedules declaredSource,
	overrides overrideSource,
	state runStateStore,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *AssignmentService {
	if cfg.MaxDailyAssignments <= 0 {
		cfg.MaxDailyAssignments = 6
	}
	if cfg.SubstituteVerifyCap <= 0 {
		cfg.SubstituteVerifyCap = 3
	}
	if cfg.RegularVerifyCap <= 0 {
		cfg.RegularVerifyCap = 2
	}
	if cfg.ScanPrefixLength <= 0 {
		cfg.ScanPrefixLength = 5
	}
	if cfg.DefaultGradeLevel <= 0 {
		cfg.DefaultGradeLevel = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		timetable: timetable,
		roster:    roster,
		schedules: schedules,
		overrides: overrides,
		state:     state,
		cfg:       cfg,
		logger:    logger,
	}
}

// AttachHistory enables run-history recording.
func (s *AssignmentService) AttachHistory(history runRecorder) {
	s.history = history
}

// AttachCache enables read-cache invalidation after runs.
func (s *AssignmentService) AttachCache(cache resultCache) {
	s.cache = cache
}

// AttachMetrics enables run metric collection.
func (s *AssignmentService) AttachMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// LoadData rebuilds the engine's view of the source files. Missing timetable
// or roster files fail; the structured enrichment files degrade gracefully.
func (s *AssignmentService) LoadData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadSources(ctx, newRunTrail())
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

// AutoAssignSubstitutes runs one allocation for the given date and absent
// teacher names. Source files are re-read at the start of every run. The
// only errors returned are an invalid date and fatal source-load failures;
// everything that goes wrong inside the allocation itself is captured in
// the returned result.
func (s *AssignmentService) AutoAssignSubstitutes(ctx context.Context, date string, absent []string) (*models.RunResult, error) {
	date = strings.TrimSpace(date)
	parsed, err := time.Parse(runDateLayout, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	day := normalize.DayFromDate(parsed)

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	trail := newRunTrail()
	trail.info("run-start", fmt.Sprintf("allocation run for %s (%s) with %d absent teachers", date, day, len(absent)), absent)

	data, err := s.loadSources(ctx, trail)
	if err != nil {
		return nil, err
	}
	s.data = data

	result := s.allocate(ctx, trail, data, date, day, absent)
	s.afterRun(ctx, result, time.Since(started))

	s.logger.Info("allocation run finished",
		zap.String("date", date),
		zap.String("day", day),
		zap.Int("absent", len(absent)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// allocate walks absent teachers and their resolved periods, selecting the
// least-loaded eligible substitute for each. Any panic inside the run is
// converted into an error-status trail entry and an empty result; the trail
// and warnings are still persisted.
func (s *AssignmentService) allocate(ctx context.Context, trail *runTrail, data *engineData, date, day string, absent []string) (result *models.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("allocation run failed: %v", r)
			trail.error("run-failed", msg, nil)
			s.logger.Error("allocation run failed", zap.String("date", date), zap.Any("cause", r))
			warnings := []string{msg}
			s.flush(ctx, trail, date, nil, warnings)
			s.lastRun = nil
			result = &models.RunResult{
				Date:        date,
				Day:         day,
				Assignments: []models.SubstituteAssignment{},
				Warnings:    warnings,
				Logs:        trail.list(),
			}
		}
	}()

	assignments := []models.SubstituteAssignment{}
	warnings := []string{}
	workload := map[string]int{}
	taken := map[string]map[int]bool{}

	for _, raw := range absent {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		periods := s.resolvePeriods(data, trail, name, day)
		if len(periods) == 0 {
			w := fmt.Sprintf("no teaching periods found for %s on %s", name, day)
			warnings = append(warnings, w)
			trail.warning("no-periods", w, nil)
			continue
		}

		for _, p := range periods {
			eligible := s.eligibleSubstitutes(data, day, p.Period, workload, taken)
			if len(eligible) == 0 {
				w := fmt.Sprintf("no substitute available for %s period %d (%s)", name, p.Period, p.ClassName)
				warnings = append(warnings, w)
				trail.warning("no-substitute", w, nil)
				continue
			}

			sort.SliceStable(eligible, func(i, j int) bool {
				return workload[normalize.Name(eligible[i].Name)] < workload[normalize.Name(eligible[j].Name)]
			})
			chosen := eligible[0]
			key := normalize.Name(chosen.Name)

			assignment := models.SubstituteAssignment{
				OriginalTeacher: name,
				Period:          p.Period,
				ClassName:       p.ClassName,
				Substitute:      chosen.Name,
				SubstitutePhone: chosen.Phone,
			}
			assignments = append(assignments, assignment)
			workload[key]++
			if taken[key] == nil {
				taken[key] = map[int]bool{}
			}
			taken[key][p.Period] = true
			trail.info("assign", fmt.Sprintf("%s covers period %d (%s) for %s", chosen.Name, p.Period, p.ClassName, name), assignment)
		}
	}

	trail.info("run-complete", fmt.Sprintf("%d assignments, %d warnings", len(assignments), len(warnings)), nil)
	s.flush(ctx, trail, date, assignments, warnings)

	s.lastRun = &runState{
		date:        date,
		day:         day,
		assignments: assignments,
		workload:    workload,
		data:        data,
	}
	return &models.RunResult{
		Date:        date,
		Day:         day,
		Assignments: assignments,
		Warnings:    warnings,
		Logs:        trail.list(),
	}
}

// eligibleSubstitutes filters the pool for one period: not already covering
// this period, under the daily cap, and free of declared-schedule conflicts.
func (s *AssignmentService) eligibleSubstitutes(data *engineData, day string, period int, workload map[string]int, taken map[string]map[int]bool) []models.Teacher {
	eligible := make([]models.Teacher, 0, len(data.pool))
	for _, cand := range data.pool {
		key := normalize.Name(cand.Name)
		if taken[key][period] {
			continue
		}
		if workload[key] >= s.cfg.MaxDailyAssignments {
			continue
		}
		if hasDeclaredConflict(data, key, day, period) {
			continue
		}
		eligible = append(eligible, cand)
	}
	return eligible
}

func hasDeclaredConflict(data *engineData, name, day string, period int) bool {
	for _, e := range data.declared[name] {
		if e.Period == period && e.Day == day {
			return true
		}
	}
	return false
}

// flush persists the run outcome: assignments only when any were made, the
// warnings and the trail always. Persistence failures are recorded in the
// trail rather than aborting the run.
func (s *AssignmentService) flush(ctx context.Context, trail *runTrail, date string, assignments []models.SubstituteAssignment, warnings []string) {
	if len(assignments) > 0 {
		if err := s.state.SaveAssignments(ctx, assignments); err != nil {
			trail.error("persist-assignments", fmt.Sprintf("persist assignments failed: %v", err), nil)
		} else {
			trail.info("persist-assignments", fmt.Sprintf("%d assignments persisted", len(assignments)), nil)
		}
	} else {
		trail.info("persist-skipped", "no assignments to persist", nil)
	}

	if err := s.state.SaveWarnings(ctx, date, warnings); err != nil {
		trail.error("persist-warnings", fmt.Sprintf("persist warnings failed: %v", err), nil)
	}
	if err := s.state.SaveLogs(ctx, date, trail.list()); err != nil {
		s.logger.Error("persist run logs failed", zap.String("date", date), zap.Error(err))
	}
}

// afterRun feeds the optional sinks. Their failures never affect the result.
func (s *AssignmentService) afterRun(ctx context.Context, result *models.RunResult, elapsed time.Duration) {
	if s.history != nil {
		if _, err := s.history.Record(ctx, result); err != nil {
			s.logger.Warn("record run history failed", zap.String("date", result.Date), zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidateAssignments(ctx, result.Date); err != nil {
			s.logger.Warn("invalidate assignment cache failed", zap.String("date", result.Date), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(result, elapsed)
	}
}

// loadSources re-reads every source file into a consolidated engineData.
// Timetable and roster failures are fatal; the declared-teachers file and
// the override table degrade with a trail entry.
func (s *AssignmentService) loadSources(ctx context.Context, trail *runTrail) (*engineData, error) {
	model, err := s.timetable.Load(ctx)
	if err != nil {
		trail.error("load-timetable", err.Error(), nil)
		return nil, err
	}
	if model.Repaired {
		trail.warning("load-timetable", "timetable required in-place repair; original kept as .bak", nil)
	}
	trail.info("load-timetable", fmt.Sprintf("%d rows, %d distinct teachers", len(model.RawRows), len(model.ByTeacher)), nil)

	rosterTeachers, rosterRepaired, err := s.roster.Load(ctx)
	if err != nil {
		trail.error("load-roster", err.Error(), nil)
		return nil, err
	}
	if rosterRepaired {
		trail.warning("load-roster", "roster required in-place repair; original kept as .bak", nil)
	}
	trail.info("load-roster", fmt.Sprintf("%d roster records", len(rosterTeachers)), nil)

	base := map[string]*models.Teacher{}
	var order []string
	for i := range rosterTeachers {
		t := rosterTeachers[i]
		key := normalize.Name(t.Name)
		if key == "" {
			continue
		}
		if _, exists := base[key]; exists {
			continue
		}
		rec := t
		base[key] = &rec
		order = append(order, key)
	}

	declared := map[string][]models.ScheduleEntry{}
	declaredSet, err := s.schedules.Load(ctx)
	switch {
	case err != nil:
		trail.warning("load-declared", fmt.Sprintf("declared schedules unavailable: %v", err), nil)
	case !declaredSet.Found:
		trail.info("load-declared", "declared schedules file absent; resolution degrades to timetable data", nil)
	default:
		if declaredSet.Skipped > 0 {
			trail.warning("load-declared", fmt.Sprintf("%d declared records failed validation and were skipped", declaredSet.Skipped), nil)
		}
		for _, d := range declaredSet.Teachers {
			key := normalize.Name(d.Name)
			if key == "" {
				continue
			}
			rec, exists := base[key]
			if !exists {
				rec = &models.Teacher{
					ID:         repository.SyntheticTeacherID(d.Phone),
					Name:       strings.TrimSpace(d.Name),
					GradeLevel: s.cfg.DefaultGradeLevel,
					IsRegular:  true,
				}
				base[key] = rec
				order = append(order, key)
			}
			if rec.Phone == "" && d.Phone != "" {
				rec.Phone = strings.TrimSpace(d.Phone)
			}
			if d.GradeLevel > 0 {
				rec.GradeLevel = d.GradeLevel
			}
			if d.IsRegular != nil {
				rec.IsRegular = *d.IsRegular
			}
			for _, v := range d.Variations {
				alias := strings.TrimSpace(v)
				if alias == "" || normalize.Name(alias) == key {
					continue
				}
				if !containsFold(rec.Variations, alias) {
					rec.Variations = append(rec.Variations, alias)
				}
			}

			entries := make([]models.ScheduleEntry, 0, len(d.Schedule))
			for _, e := range d.Schedule {
				entries = append(entries, models.ScheduleEntry{
					Day:       normalize.Day(e.Day),
					Period:    e.Period,
					ClassName: strings.TrimSpace(e.ClassName),
				})
			}
			declared[key] = append(declared[key], entries...)
			for _, v := range d.Variations {
				alias := normalize.Name(v)
				if alias == "" || alias == key {
					continue
				}
				declared[alias] = append(declared[alias], entries...)
			}
		}
		trail.info("load-declared", fmt.Sprintf("%d declared teachers", len(declaredSet.Teachers)), nil)
	}

	overrides := map[string]map[string][]models.ResolvedPeriod{}
	overrideSet, err := s.overrides.Load(ctx)
	switch {
	case err != nil:
		trail.warning("load-overrides", fmt.Sprintf("override table unavailable: %v", err), nil)
	case !overrideSet.Found:
		trail.info("load-overrides", "override table absent", nil)
	default:
		if overrideSet.Skipped > 0 {
			trail.warning("load-overrides", fmt.Sprintf("%d override entries failed validation and were skipped", overrideSet.Skipped), nil)
		}
		for _, o := range overrideSet.Overrides {
			key := normalize.Name(o.Teacher)
			day := normalize.Day(o.Day)
			if key == "" || day == "" {
				continue
			}
			if overrides[key] == nil {
				overrides[key] = map[string][]models.ResolvedPeriod{}
			}
			for _, p := range o.Periods {
				overrides[key][day] = append(overrides[key][day], models.ResolvedPeriod{
					Period:    p.Period,
					ClassName: strings.TrimSpace(p.ClassName),
					Source:    models.PeriodSourceSpecial,
				})
			}
		}
		trail.info("load-overrides", fmt.Sprintf("%d override entries", len(overrideSet.Overrides)), nil)
	}

	directory := make(map[string]models.Teacher, len(base))
	for _, key := range order {
		directory[key] = *base[key]
	}
	for _, key := range order {
		rec := base[key]
		for _, v := range rec.Variations {
			alias := normalize.Name(v)
			if alias == "" {
				continue
			}
			if _, exists := directory[alias]; !exists {
				directory[alias] = *rec
			}
		}
	}

	pool := []models.Teacher{}
	for _, key := range order {
		if base[key].IsSubstituteCandidate() {
			pool = append(pool, *base[key])
		}
	}
	trail.info("build-pool", fmt.Sprintf("%d of %d teachers qualify as substitutes", len(pool), len(order)), nil)

	return &engineData{
		model:     model,
		directory: directory,
		order:     order,
		pool:      pool,
		declared:  declared,
		overrides: overrides,
	}, nil
}

func (s *AssignmentService) ensureData(ctx context.Context) (*engineData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		return s.data, nil
	}
	data, err := s.loadSources(ctx, newRunTrail())
	if err != nil {
		return nil, err
	}
	s.data = data
	return data, nil
}

// Teachers lists directory records with search and pagination.
func (s *AssignmentService) Teachers(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	data, err := s.ensureData(ctx)
	if err != nil {
		return nil, 0, err
	}

	search := normalize.Name(filter.Search)
	matched := make([]models.Teacher, 0, len(data.order))
	for _, key := range data.order {
		rec := data.directory[key]
		if search != "" && !teacherMatches(rec, search) {
			continue
		}
		matched = append(matched, rec)
	}
	total := len(matched)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start >= total {
		return []models.Teacher{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// AssignmentsForDate returns the assignments recorded for the given date.
// The in-memory run state answers when it matches; otherwise the persisted
// assignment file is consulted, which only ever holds the latest run.
func (s *AssignmentService) AssignmentsForDate(ctx context.Context, date string) ([]models.SubstituteAssignment, error) {
	date = strings.TrimSpace(date)

	s.mu.Lock()
	if s.lastRun != nil && (date == "" || s.lastRun.date == date) {
		assignments := make([]models.SubstituteAssignment, len(s.lastRun.assignments))
		copy(assignments, s.lastRun.assignments)
		s.mu.Unlock()
		return assignments, nil
	}
	s.mu.Unlock()

	return s.state.GetAssignments(ctx)
}

// Substitutes returns the current substitute pool in load order.
func (s *AssignmentService) Substitutes(ctx context.Context) ([]models.Teacher, error) {
	data, err := s.ensureData(ctx)
	if err != nil {
		return nil, err
	}
	pool := make([]models.Teacher, len(data.pool))
	copy(pool, data.pool)
	return pool, nil
}

func teacherMatches(t models.Teacher, search string) bool {
	if strings.Contains(normalize.Name(t.Name), search) {
		return true
	}
	for _, v := range t.Variations {
		if strings.Contains(normalize.Name(v), search) {
			return true
		}
	}
	return false
}

func containsFold(list []string, target string) bool {
	for _, item := range list {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}
