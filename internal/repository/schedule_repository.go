package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
)

// DeclaredTeacher is one record of the declared-teachers file: directory
// attributes plus the teacher's self-declared weekly schedule.
type DeclaredTeacher struct {
	Name       string                 `json:"name" validate:"required"`
	Phone      string                 `json:"phone,omitempty"`
	GradeLevel int                    `json:"gradeLevel,omitempty" validate:"omitempty,gte=1"`
	IsRegular  *bool                  `json:"isRegular,omitempty"`
	Variations []string               `json:"variations,omitempty"`
	Schedule   []models.ScheduleEntry `json:"schedule,omitempty"`
}

// DeclaredSet is the loaded declared-teachers file.
type DeclaredSet struct {
	Teachers []DeclaredTeacher
	Skipped  int
	Found    bool
}

// ScheduleRepository loads the declared-teachers file.
type ScheduleRepository struct {
	path     string
	validate *validator.Validate
}

// NewScheduleRepository constructs a ScheduleRepository for the given path.
func NewScheduleRepository(path string, validate *validator.Validate) *ScheduleRepository {
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleRepository{path: path, validate: validate}
}

type declaredFile struct {
	Teachers []DeclaredTeacher `json:"teachers"`
}

// Load reads the declared-teachers file. A missing file is not an error; the
// returned set reports Found=false so callers can log the degradation.
// Records that fail validation are skipped and counted.
func (r *ScheduleRepository) Load(_ context.Context) (*DeclaredSet, error) {
	set := &DeclaredSet{}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("declared schedules unreadable: %s", r.path))
	}
	set.Found = true

	var file declaredFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("declared schedules unparsable: %s", r.path))
	}

	for _, t := range file.Teachers {
		if err := r.validate.Struct(t); err != nil {
			set.Skipped++
			continue
		}
		set.Teachers = append(set.Teachers, t)
	}

	return set, nil
}
