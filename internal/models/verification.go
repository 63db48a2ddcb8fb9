package models

// VerificationStatus is the outcome of a single consistency check.
type VerificationStatus string

const (
	VerificationPass VerificationStatus = "PASS"
	VerificationFail VerificationStatus = "FAIL"
)

// VerificationReport describes one post-run consistency check.
type VerificationReport struct {
	Check   string             `json:"check"`
	Status  VerificationStatus `json:"status"`
	Details string             `json:"details"`
}
