package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/pkg/normalize"
)

// rosterFieldCount is the column count of the substitute roster file:
// name, phone, gradeLevel.
const rosterFieldCount = 3

// RosterRepository loads the substitute roster file.
type RosterRepository struct {
	path         string
	defaultGrade int
}

// NewRosterRepository constructs a RosterRepository for the given path.
func NewRosterRepository(path string, defaultGrade int) *RosterRepository {
	if defaultGrade <= 0 {
		defaultGrade = 10
	}
	return &RosterRepository{path: path, defaultGrade: defaultGrade}
}

// Load parses the roster into teacher records in file order. A header row is
// skipped when its first cell reads "name". Records default gradeLevel when
// the column is blank and receive a synthetic id derived from the phone
// number, or a random token when no phone is present.
func (r *RosterRepository) Load(_ context.Context) ([]models.Teacher, bool, error) {
	records, repaired, err := readRepairedCSV(r.path, rosterFieldCount)
	if err != nil {
		return nil, false, err
	}

	teachers := make([]models.Teacher, 0, len(records))
	for i, row := range records {
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		if i == 0 && normalize.Name(name) == "name" {
			continue
		}

		phone := strings.TrimSpace(row[1])
		grade := r.defaultGrade
		if g, convErr := strconv.Atoi(strings.TrimSpace(row[2])); convErr == nil && g > 0 {
			grade = g
		}

		teachers = append(teachers, models.Teacher{
			ID:         SyntheticTeacherID(phone),
			Name:       name,
			Phone:      phone,
			GradeLevel: grade,
			IsRegular:  true,
		})
	}

	return teachers, repaired, nil
}

// SyntheticTeacherID derives a stable id from the phone digits, falling back
// to a random token for phone-less records.
func SyntheticTeacherID(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits != "" {
		return "t-" + digits
	}
	return uuid.NewString()
}
