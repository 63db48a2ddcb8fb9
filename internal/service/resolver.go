package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/internal/repository"
	"github.com/noah-isme/substitution-api/pkg/normalize"
)

// periodSet accumulates resolved periods in insertion order, deduplicated by
// (period, className). Override entries are pinned: a later strategy never
// replaces them. Other duplicates keep their position but take the newer
// source, so the trail reflects the last strategy that confirmed the slot.
type periodSet struct {
	order []string
	byKey map[string]models.ResolvedPeriod
}

func newPeriodSet() *periodSet {
	return &periodSet{byKey: map[string]models.ResolvedPeriod{}}
}

func (ps *periodSet) add(p models.ResolvedPeriod) {
	if p.Period <= 0 || p.ClassName == "" {
		return
	}
	key := fmt.Sprintf("%d|%s", p.Period, p.ClassName)
	existing, ok := ps.byKey[key]
	if !ok {
		ps.order = append(ps.order, key)
		ps.byKey[key] = p
		return
	}
	if existing.Source == models.PeriodSourceSpecial {
		return
	}
	ps.byKey[key] = p
}

func (ps *periodSet) list() []models.ResolvedPeriod {
	out := make([]models.ResolvedPeriod, 0, len(ps.order))
	for _, key := range ps.order {
		out = append(out, ps.byKey[key])
	}
	return out
}

func (ps *periodSet) len() int {
	return len(ps.order)
}

// resolvePeriods determines which periods the named teacher must be covered
// for on the given day. Strategies run in priority order and every step is
// recorded in the trail; the raw timetable scan only runs when the earlier
// strategies found nothing.
func (s *AssignmentService) resolvePeriods(data *engineData, trail *runTrail, teacherName, day string) []models.ResolvedPeriod {
	key := normalize.Name(teacherName)
	set := newPeriodSet()

	// 1. override table
	overrides := data.overridesFor(key, day)
	for _, p := range overrides {
		set.add(p)
	}
	if len(overrides) > 0 {
		trail.info("resolve-special", fmt.Sprintf("override table pins %d periods for %s on %s", len(overrides), teacherName, day), overrides)
	} else {
		trail.info("resolve-special", fmt.Sprintf("no override entry for %s on %s", teacherName, day), nil)
	}

	// 2. timetable class map
	found := 0
	for _, entry := range data.model.ByTeacher[key] {
		if entry.Day != day {
			continue
		}
		set.add(models.ResolvedPeriod{Period: entry.Period, ClassName: entry.ClassName, Source: models.PeriodSourceClassMap})
		found++
	}
	trail.info("resolve-class-map", fmt.Sprintf("timetable class map yields %d periods for %s on %s", found, teacherName, day), nil)

	// 3. declared schedule
	found = 0
	for _, entry := range data.declared[key] {
		if entry.Day != day {
			continue
		}
		set.add(models.ResolvedPeriod{Period: entry.Period, ClassName: entry.ClassName, Source: models.PeriodSourceSchedule})
		found++
	}
	trail.info("resolve-schedule", fmt.Sprintf("declared schedule yields %d periods for %s on %s", found, teacherName, day), nil)

	// 4. declared schedule under every known variation
	variations := data.variationsFor(key)
	found = 0
	for _, alias := range variations {
		for _, entry := range data.declared[alias] {
			if entry.Day != day {
				continue
			}
			set.add(models.ResolvedPeriod{Period: entry.Period, ClassName: entry.ClassName, Source: models.PeriodSourceVariation})
			found++
		}
	}
	trail.info("resolve-variation", fmt.Sprintf("%d name variations yield %d periods for %s on %s", len(variations), found, teacherName, day), nil)

	// 5. raw timetable scan, last resort only
	if set.len() == 0 {
		scanned := s.scanTimetable(data, key, day)
		for _, p := range scanned {
			set.add(p)
		}
		details := fmt.Sprintf("raw timetable scan yields %d periods for %s on %s", len(scanned), teacherName, day)
		if len(scanned) > 0 {
			trail.info("resolve-scan", details, nil)
		} else {
			trail.warning("resolve-scan", details, nil)
		}
	}

	resolved := set.list()
	trail.info("resolve-complete", fmt.Sprintf("%d periods resolved for %s on %s", len(resolved), teacherName, day), resolved)
	return resolved
}

// scanTimetable fuzzily matches timetable cells against the first characters
// of the teacher's normalized name. It catches records the exact lookups
// miss, typically names with typos past the prefix.
func (s *AssignmentService) scanTimetable(data *engineData, key, day string) []models.ResolvedPeriod {
	prefix := key
	if len(prefix) > s.cfg.ScanPrefixLength {
		prefix = prefix[:s.cfg.ScanPrefixLength]
	}
	if strings.TrimSpace(prefix) == "" {
		return nil
	}

	var out []models.ResolvedPeriod
	for _, row := range data.model.RawRows {
		if len(row) < 2 || normalize.Day(row[0]) != day {
			continue
		}
		period := parsePeriod(row[1])
		if period <= 0 {
			continue
		}
		for col, className := range repository.TimetableClassColumns {
			cellIdx := col + 2
			if cellIdx >= len(row) {
				break
			}
			cell := normalize.Name(row[cellIdx])
			if cell == "" || strings.EqualFold(cell, "empty") {
				continue
			}
			if strings.Contains(cell, prefix) {
				out = append(out, models.ResolvedPeriod{
					Period:    period,
					ClassName: className,
					Source:    models.PeriodSourceScan,
				})
			}
		}
	}
	return out
}

func parsePeriod(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
