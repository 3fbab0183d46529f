package audit

import (
	"regexp"
	"strconv"
	"strings"
)

type CourseStatus string

const (
	StatusCompleted  CourseStatus = "completed"
	StatusInProgress CourseStatus = "in_progress"
	StatusPlanned    CourseStatus = "planned"
	StatusWithdrawn  CourseStatus = "withdrawn"
)

type CourseLevel string

const (
	LevelLower CourseLevel = "lower"
	LevelUpper CourseLevel = "upper"
)

// Course is one plan entry as the engine sees it: catalog facts (code, title,
// credits) merged with the student's registration state. Level and discipline
// are derived from the code, never stored.
type Course struct {
	Code    string       `json:"code"`
	Title   string       `json:"title,omitempty"`
	Credits float64      `json:"credits"`
	Status  CourseStatus `json:"status"`
	Grade   *string      `json:"grade,omitempty"`
	Term    string       `json:"term,omitempty"`
}

var (
	courseCodePattern = regexp.MustCompile(`\b[A-Z]{2,4}\s+\d{4}[A-Z]?\b`)
	courseCodeStrict  = regexp.MustCompile(`^([A-Z]{2,4})\s+(\d{4})([A-Z]?)$`)
)

// ExtractCourseCodes returns every course code found in free text, in order
// of first appearance, deduplicated.
func ExtractCourseCodes(text string) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, m := range courseCodePattern.FindAllString(text, -1) {
		code := NormalizeCode(m)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// NormalizeCode upper-cases a course code and collapses interior whitespace
// so "cs  1400" and "CS 1400" compare equal.
func NormalizeCode(code string) string {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(code)))
	return strings.Join(fields, " ")
}

// SplitCode breaks a course code into its discipline prefix and catalog
// number. An unparseable code is a data integrity problem, not a rule
// failure.
func SplitCode(code string) (prefix string, number int, err error) {
	m := courseCodeStrict.FindStringSubmatch(NormalizeCode(code))
	if m == nil {
		return "", 0, newDataIntegrityError("unparseable course code", code)
	}
	n, convErr := strconv.Atoi(m[2])
	if convErr != nil {
		return "", 0, newDataIntegrityError("unparseable course number", code)
	}
	return m[1], n, nil
}

// DisciplineOf returns the discipline prefix of a code, or "" when the code
// is malformed.
func DisciplineOf(code string) string {
	prefix, _, err := SplitCode(code)
	if err != nil {
		return ""
	}
	return prefix
}

// levelOf classifies a catalog number against the configured upper-division
// cutoff. Developmental numbers (below 1000) are lower division; they carry
// credit but never count as advanced work.
func levelOf(number, upperAt int) CourseLevel {
	if number >= upperAt {
		return LevelUpper
	}
	return LevelLower
}

// LevelOf classifies a course code. Malformed codes return an error so
// callers surface them instead of silently binning the course.
func LevelOf(code string, upperAt int) (CourseLevel, error) {
	_, number, err := SplitCode(code)
	if err != nil {
		return "", err
	}
	return levelOf(number, upperAt), nil
}

// failingGrades lists grade prefixes that do not earn requirement credit.
// A nil grade on a completed course means credit was recorded without a
// letter (transfer, CR/P) and counts.
var failingGrades = []string{"D", "F", "E", "UW", "NC", "W", "I"}

func passingGrade(grade *string) bool {
	if grade == nil {
		return true
	}
	g := strings.ToUpper(strings.TrimSpace(*grade))
	if g == "" {
		return true
	}
	for _, f := range failingGrades {
		if strings.HasPrefix(g, f) {
			return false
		}
	}
	return true
}

// countsToward reports whether a course contributes credit under the given
// aggregation mode. Withdrawn never counts; planned counts only in projected
// mode; completed requires a passing grade.
func countsToward(c Course, projected bool) bool {
	switch c.Status {
	case StatusWithdrawn:
		return false
	case StatusPlanned:
		return projected
	case StatusInProgress:
		return true
	case StatusCompleted:
		return passingGrade(c.Grade)
	default:
		return false
	}
}

// satisfiesRequirement reports whether a course can satisfy a prerequisite:
// completed with a passing grade, or currently being taken.
func satisfiesRequirement(c Course) bool {
	switch c.Status {
	case StatusCompleted:
		return passingGrade(c.Grade)
	case StatusInProgress:
		return true
	default:
		return false
	}
}
