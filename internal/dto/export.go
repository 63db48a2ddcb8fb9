package dto

// ExportRequest queues one substitution-sheet export.
type ExportRequest struct {
	Date   string `json:"date" validate:"required"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}
