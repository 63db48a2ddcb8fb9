package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/substitution-api/internal/models"
)

// FilterSubstitutesByGrade narrows candidates to those teaching the class's
// grade, falling back to higher-grade substitutes with a warning when no
// exact match exists. The live selection path filters on workload and
// schedule conflicts only and does not call this; it is kept as a confirmed
// product decision pending requirements on grade compatibility.
func FilterSubstitutesByGrade(className string, candidates []models.Teacher) ([]models.Teacher, []string) {
	target := classGrade(className)
	if target <= 0 {
		return candidates, nil
	}

	exact := make([]models.Teacher, 0, len(candidates))
	higher := make([]models.Teacher, 0, len(candidates))
	for _, cand := range candidates {
		switch {
		case cand.GradeLevel == target:
			exact = append(exact, cand)
		case cand.GradeLevel > target:
			higher = append(higher, cand)
		}
	}

	if len(exact) > 0 {
		return exact, nil
	}
	if len(higher) > 0 {
		return higher, []string{fmt.Sprintf("no grade-%d substitutes for %s; using higher-grade candidates", target, className)}
	}
	return nil, []string{fmt.Sprintf("no grade-compatible substitutes for %s", className)}
}

// classGrade extracts the numeric grade from a class name such as "10A".
func classGrade(className string) int {
	digits := strings.TrimRightFunc(strings.TrimSpace(className), func(r rune) bool {
		return r < '0' || r > '9'
	})
	grade, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return grade
}
