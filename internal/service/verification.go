package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/normalize"
)

const (
	checkSubstituteCap  = "substitute-workload-cap"
	checkScheduleClash  = "schedule-conflict"
	checkPerTeacherCaps = "per-teacher-caps"
)

// VerifyLastRun checks the most recent allocation against the workload and
// conflict invariants. It reads the engine's in-memory run state, so it must
// follow a completed AutoAssignSubstitutes call in the same process.
func (s *AssignmentService) VerifyLastRun() ([]models.VerificationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no completed allocation run to verify")
	}
	run := s.lastRun

	reports := []models.VerificationReport{
		s.verifySubstituteCap(run),
		s.verifyScheduleConflicts(run),
		s.verifyPerTeacherCaps(run),
	}
	return reports, nil
}

// verifySubstituteCap confirms no pool member holds more same-day
// assignments than the substitute cap.
func (s *AssignmentService) verifySubstituteCap(run *runState) models.VerificationReport {
	counts := map[string]int{}
	for _, a := range run.assignments {
		counts[normalize.Name(a.Substitute)]++
	}

	var violations []string
	for _, sub := range run.data.pool {
		key := normalize.Name(sub.Name)
		if counts[key] > s.cfg.SubstituteVerifyCap {
			violations = append(violations, fmt.Sprintf("%s holds %d assignments (cap %d)", sub.Name, counts[key], s.cfg.SubstituteVerifyCap))
		}
	}

	if len(violations) > 0 {
		return models.VerificationReport{
			Check:   checkSubstituteCap,
			Status:  models.VerificationFail,
			Details: strings.Join(violations, "; "),
		}
	}
	return models.VerificationReport{
		Check:   checkSubstituteCap,
		Status:  models.VerificationPass,
		Details: fmt.Sprintf("all substitutes within the cap of %d assignments", s.cfg.SubstituteVerifyCap),
	}
}

// verifyScheduleConflicts confirms no substitute was placed into a period
// the timetable already shows them teaching on the run's day.
func (s *AssignmentService) verifyScheduleConflicts(run *runState) models.VerificationReport {
	var violations []string
	for _, a := range run.assignments {
		key := normalize.Name(a.Substitute)
		for _, entry := range run.data.model.ByTeacher[key] {
			if entry.Day == run.day && entry.Period == a.Period {
				violations = append(violations, fmt.Sprintf("%s assigned period %d but teaches %s then", a.Substitute, a.Period, entry.ClassName))
			}
		}
	}

	if len(violations) > 0 {
		return models.VerificationReport{
			Check:   checkScheduleClash,
			Status:  models.VerificationFail,
			Details: strings.Join(violations, "; "),
		}
	}
	return models.VerificationReport{
		Check:   checkScheduleClash,
		Status:  models.VerificationPass,
		Details: "no assignment collides with the timetable",
	}
}

// verifyPerTeacherCaps applies the stricter post-run caps: substitutes may
// carry at most the substitute cap, regular teachers the regular cap.
func (s *AssignmentService) verifyPerTeacherCaps(run *runState) models.VerificationReport {
	var violations []string
	for key, load := range run.workload {
		rec, known := run.data.directory[key]
		limit := s.cfg.RegularVerifyCap
		name := key
		if known {
			name = rec.Name
			if rec.IsSubstituteCandidate() {
				limit = s.cfg.SubstituteVerifyCap
			}
		}
		if load > limit {
			violations = append(violations, fmt.Sprintf("%s carries %d periods (cap %d)", name, load, limit))
		}
	}

	if len(violations) > 0 {
		return models.VerificationReport{
			Check:   checkPerTeacherCaps,
			Status:  models.VerificationFail,
			Details: strings.Join(violations, "; "),
		}
	}
	return models.VerificationReport{
		Check:   checkPerTeacherCaps,
		Status:  models.VerificationPass,
		Details: "every teacher within their workload cap",
	}
}
