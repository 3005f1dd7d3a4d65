package models

// CheckStatus is the outcome level of a single conformance check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckWarning CheckStatus = "warning"
	CheckError   CheckStatus = "error"
)

// ValidationCheck is one named conformance check with a human-readable detail.
type ValidationCheck struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Passed bool        `json:"passed"`
	Detail string      `json:"detail"`
}

// ValidationResult is the outcome of an automated creative check. It is only persisted
// inside a MediaHistoryEntry.
type ValidationResult struct {
	Checks   []ValidationCheck `json:"checks"`
	Approved bool              `json:"approved"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
	Target   string            `json:"target,omitempty"`
}

// Check returns the named check, if present.
func (r *ValidationResult) Check(name string) (ValidationCheck, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return ValidationCheck{}, false
}
