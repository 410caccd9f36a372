package diag

// Severity defines the importance of a diagnostic. Higher is worse, so
// sorting and "worst so far" checks compare values directly.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{SevInfo: "info", SevWarning: "warning", SevError: "error"}

// Label is the lower-case name used in rendered diagnostics.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
