package dto

// AutoAssignRequest triggers one allocation run.
type AutoAssignRequest struct {
	Date           string   `json:"date" validate:"required"`
	AbsentTeachers []string `json:"absentTeachers" validate:"required,min=1,dive,required"`
}

// TeacherListQuery captures the directory listing parameters.
type TeacherListQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
