package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
)

// OverridePeriod is one fixed period inside an override entry.
type OverridePeriod struct {
	Period    int    `json:"period"`
	ClassName string `json:"className"`
}

// Override pins a fixed set of periods for one teacher on one day. Entries
// exist for the cases the regular resolution strategies are known to miss.
type Override struct {
	Teacher string           `json:"teacher" validate:"required"`
	Day     string           `json:"day" validate:"required"`
	Periods []OverridePeriod `json:"periods" validate:"required,min=1"`
}

// OverrideSet is the loaded override table.
type OverrideSet struct {
	Overrides []Override
	Skipped   int
	Found     bool
}

// OverrideRepository loads the period override table.
type OverrideRepository struct {
	path     string
	validate *validator.Validate
}

// NewOverrideRepository constructs an OverrideRepository for the given path.
func NewOverrideRepository(path string, validate *validator.Validate) *OverrideRepository {
	if validate == nil {
		validate = validator.New()
	}
	return &OverrideRepository{path: path, validate: validate}
}

type overrideFile struct {
	Overrides []Override `json:"overrides"`
}

// Load reads the override table. A missing file is not an error; the
// returned set reports Found=false. Entries failing validation are skipped
// and counted.
func (r *OverrideRepository) Load(_ context.Context) (*OverrideSet, error) {
	set := &OverrideSet{}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("override table unreadable: %s", r.path))
	}
	set.Found = true

	var file overrideFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnreadable.Code, appErrors.ErrSourceUnreadable.Status,
			fmt.Sprintf("override table unparsable: %s", r.path))
	}

	for _, o := range file.Overrides {
		if err := r.validate.Struct(o); err != nil {
			set.Skipped++
			continue
		}
		set.Overrides = append(set.Overrides, o)
	}

	return set, nil
}
