package audit

import "fmt"

// DataIntegrityError reports malformed catalog or plan input: negative
// credits, unparseable course codes, prerequisite cycles, assignments to
// unknown categories. It is never used for an unmet rule; those are report
// content.
type DataIntegrityError struct {
	Reason  string
	Courses []string
}

func (e *DataIntegrityError) Error() string {
	if len(e.Courses) == 0 {
		return fmt.Sprintf("data integrity: %s", e.Reason)
	}
	return fmt.Sprintf("data integrity: %s (courses: %v)", e.Reason, e.Courses)
}

func newDataIntegrityError(reason string, courses ...string) *DataIntegrityError {
	return &DataIntegrityError{Reason: reason, Courses: courses}
}

// ConfigurationError reports an unusable rule set: missing or invalid
// thresholds or category definitions. It is fatal for the whole validation
// call because no rule can be evaluated against a broken rule set.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}

func newConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
