package labrequest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "Pending"
	StatusComplete  = "Complete"
	StatusCancelled = "Cancelled"
)

var validStatuses = map[string]bool{StatusPending: true, StatusComplete: true, StatusCancelled: true}

var transitions = map[string]map[string]bool{
	StatusPending: {StatusComplete: true, StatusCancelled: true},
}

// CanTransition reports whether a lab request may move between statuses.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// ParseStatus returns the canonical spelling of s, matched case-insensitively.
func ParseStatus(s string) (string, bool) {
	for st := range validStatuses {
		if strings.EqualFold(st, strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

const maxIDLength = 64

// LabRequest is an order for laboratory tests. Tests maps a test name to
// "yes", "no" or a free-form value; Results maps test names to findings.
type LabRequest struct {
	ID            string            `json:"id"`
	PatientID     string            `json:"patient_id"`
	RequestedBy   string            `json:"requested_by,omitempty"`
	Tests         map[string]string `json:"tests"`
	Results       map[string]string `json:"results"`
	Status        string            `json:"status"`
	DateRequested string            `json:"date_requested"`
	DateTaken     string            `json:"date_taken,omitempty"`
	Remarks       string            `json:"remarks,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ResultsUpdate is a partial result entry for a pending request.
type ResultsUpdate struct {
	Results   map[string]string
	DateTaken *string
	Status    *string
	Remarks   *string
}

// NewLabRequest builds a pending request. DateRequested defaults to today.
func NewLabRequest(l LabRequest, today string) (*LabRequest, error) {
	l.ID = strings.TrimSpace(l.ID)
	l.PatientID = strings.TrimSpace(l.PatientID)
	l.RequestedBy = strings.TrimSpace(l.RequestedBy)
	l.Status = StatusPending
	l.DateTaken = ""
	l.Results = map[string]string{}
	if l.DateRequested == "" {
		l.DateRequested = today
	}

	tests := make(map[string]string, len(l.Tests))
	for name, v := range l.Tests {
		name, v = strings.TrimSpace(name), strings.TrimSpace(v)
		if name == "" {
			return nil, fmt.Errorf("test names must not be empty")
		}
		if v == "" {
			return nil, fmt.Errorf("test %s needs a value", name)
		}
		tests[name] = v
	}
	l.Tests = tests

	if err := l.check(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *LabRequest) check() error {
	if len(l.ID) > maxIDLength || strings.ContainsAny(l.ID, " \t/") {
		return fmt.Errorf("id must be at most %d characters without spaces or slashes", maxIDLength)
	}
	if l.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if l.RequestedBy != "" {
		if _, err := uuid.Parse(l.RequestedBy); err != nil {
			return fmt.Errorf("requested_by must be a valid UUID")
		}
	}
	if !l.Ordered() {
		return fmt.Errorf("at least one test must be requested")
	}
	if _, err := time.Parse("2006-01-02", l.DateRequested); err != nil {
		return fmt.Errorf("date_requested must be a date in YYYY-MM-DD format")
	}
	if l.DateTaken != "" {
		if _, err := time.Parse("2006-01-02", l.DateTaken); err != nil {
			return fmt.Errorf("date_taken must be a date in YYYY-MM-DD format")
		}
	}
	if !validStatuses[l.Status] {
		return fmt.Errorf("invalid lab request status: %s", l.Status)
	}
	return nil
}

// Ordered reports whether any test is flagged for the request.
func (l *LabRequest) Ordered() bool {
	for _, v := range l.Tests {
		if !strings.EqualFold(v, "no") {
			return true
		}
	}
	return false
}

// HasResults reports whether at least one result field is filled in.
func (l *LabRequest) HasResults() bool {
	for _, v := range l.Results {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// merge applies result fields, date taken and remarks. Status is left to
// the caller.
func (l *LabRequest) merge(u ResultsUpdate) error {
	next := *l
	next.Results = make(map[string]string, len(l.Results)+len(u.Results))
	for k, v := range l.Results {
		next.Results[k] = v
	}
	for k, v := range u.Results {
		k = strings.TrimSpace(k)
		if k == "" {
			return fmt.Errorf("result names must not be empty")
		}
		next.Results[k] = strings.TrimSpace(v)
	}
	if u.DateTaken != nil {
		next.DateTaken = *u.DateTaken
	}
	if u.Remarks != nil {
		next.Remarks = *u.Remarks
	}
	if err := next.check(); err != nil {
		return err
	}
	*l = next
	return nil
}

// readyToComplete lists what a request still lacks before it can be
// marked Complete.
func (l *LabRequest) readyToComplete() error {
	if l.DateTaken == "" {
		return fmt.Errorf("date_taken is required to complete a lab request")
	}
	if !l.HasResults() {
		return fmt.Errorf("at least one result is required to complete a lab request")
	}
	return nil
}

func cloneLabRequest(l *LabRequest) *LabRequest {
	c := *l
	c.Tests = cloneMap(l.Tests)
	c.Results = cloneMap(l.Results)
	return &c
}

// cloneMap copies m; a nil map comes back empty, as every store returns
// tests and results.
func cloneMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
