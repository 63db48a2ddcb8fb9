package models

// Teacher represents one directory entry. Name is the canonical lookup key
// after normalisation; Variations list alternate spellings that resolve to
// the same person.
type Teacher struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone,omitempty"`
	GradeLevel int      `json:"gradeLevel"`
	IsRegular  bool     `json:"isRegular"`
	Variations []string `json:"variations,omitempty"`
}

// IsSubstituteCandidate reports whether the teacher can join the substitute
// pool. Only teachers with a reachable phone number qualify.
func (t Teacher) IsSubstituteCandidate() bool {
	return t.Phone != ""
}

// TeacherFilter captures filtering options for listing directory entries.
type TeacherFilter struct {
	Search   string
	Page     int
	PageSize int
}
