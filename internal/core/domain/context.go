package domain

import (
	"fmt"
	"regexp"
	"time"
)

// periodKeyPattern matches "YYYY-MM".
var periodKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// WorkItem is a tracked work item from the issue tracker snapshot.
type WorkItem struct {
	ID            int        `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Type          string     `json:"type" yaml:"type"`
	State         string     `json:"state" yaml:"state"`
	Description   string     `json:"description,omitempty" yaml:"description"`
	AssignedTo    string     `json:"assignedTo,omitempty" yaml:"assignedTo"`
	IterationPath string     `json:"iterationPath,omitempty" yaml:"iterationPath"`
	CreatedDate   *time.Time `json:"createdDate,omitempty" yaml:"createdDate"`
	ChangedDate   *time.Time `json:"changedDate,omitempty" yaml:"changedDate"`
	ClosedDate    *time.Time `json:"closedDate,omitempty" yaml:"closedDate"`
	CompletedWork float64    `json:"completedWork,omitempty" yaml:"completedWork"`
	RemainingWork float64    `json:"remainingWork,omitempty" yaml:"remainingWork"`
	URL           string     `json:"url,omitempty" yaml:"url"`
}

// IsDone reports whether the item is in a completed state.
func (w WorkItem) IsDone() bool {
	switch w.State {
	case "Done", "Closed", "Resolved", "Completed", "Concluído":
		return true
	default:
		return false
	}
}

// LastTouched returns the most recent known timestamp of the item.
func (w WorkItem) LastTouched() time.Time {
	for _, t := range []*time.Time{w.ChangedDate, w.ClosedDate, w.CreatedDate} {
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

// Sprint is an iteration snapshot.
type Sprint struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	StartDate      *time.Time `json:"startDate,omitempty" yaml:"startDate"`
	FinishDate     *time.Time `json:"finishDate,omitempty" yaml:"finishDate"`
	TotalItems     int        `json:"totalItems" yaml:"totalItems"`
	CompletedItems int        `json:"completedItems" yaml:"completedItems"`
	URL            string     `json:"url,omitempty" yaml:"url"`
}

// DocumentRef is an uploaded project document.
type DocumentRef struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	URL        string     `json:"url,omitempty" yaml:"url"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty" yaml:"uploadedAt"`
}

// WikiPageRef is a wiki page of the project.
type WikiPageRef struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Path      string     `json:"path,omitempty" yaml:"path"`
	URL       string     `json:"url,omitempty" yaml:"url"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt"`
}

// TeamMember is a person who may appear as an activity responsible.
type TeamMember struct {
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email,omitempty" yaml:"email"`
	CPF    string `json:"cpf,omitempty" yaml:"cpf"`
	Degree string `json:"degree,omitempty" yaml:"degree"`
	Role   string `json:"role,omitempty" yaml:"role"`
}

// ProjectMetadata is configured project information.
type ProjectMetadata struct {
	Name         string     `json:"name" yaml:"name"`
	Code         string     `json:"code,omitempty" yaml:"code"`
	Organization string     `json:"organization,omitempty" yaml:"organization"`
	Coordinator  string     `json:"coordinator,omitempty" yaml:"coordinator"`
	StartDate    *time.Time `json:"startDate,omitempty" yaml:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty" yaml:"endDate"`
}

// PlaceholderRequirement describes a placeholder the report template expects.
type PlaceholderRequirement struct {
	Name        string `json:"name" yaml:"name"`
	Section     string `json:"section,omitempty" yaml:"section"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// PeriodStats aggregates the period's tracker activity.
type PeriodStats struct {
	TotalItems     int     `json:"totalItems" yaml:"totalItems"`
	CompletedItems int     `json:"completedItems" yaml:"completedItems"`
	ActiveItems    int     `json:"activeItems" yaml:"activeItems"`
	NewItems       int     `json:"newItems" yaml:"newItems"`
	CompletedHours float64 `json:"completedHours" yaml:"completedHours"`
	RemainingHours float64 `json:"remainingHours" yaml:"remainingHours"`
}

// GenerationContext is the snapshot the extractor consumes. It is supplied by
// the upstream context provider; the extractor never fetches data itself.
type GenerationContext struct {
	ProjectID    string                   `json:"projectId" yaml:"projectId"`
	PeriodKey    string                   `json:"periodKey" yaml:"periodKey"`
	Project      ProjectMetadata          `json:"project" yaml:"project"`
	WorkItems    []WorkItem               `json:"workItems" yaml:"workItems"`
	Sprints      []Sprint                 `json:"sprints" yaml:"sprints"`
	Documents    []DocumentRef            `json:"documents" yaml:"documents"`
	WikiPages    []WikiPageRef            `json:"wikiPages" yaml:"wikiPages"`
	TeamMembers  []TeamMember             `json:"teamMembers" yaml:"teamMembers"`
	Placeholders []PlaceholderRequirement `json:"placeholders" yaml:"placeholders"`
	Stats        PeriodStats              `json:"stats" yaml:"stats"`
}

// Validate checks the context has the shape extraction requires.
// Returns a *ContextError listing every problem found.
func (c *GenerationContext) Validate() error {
	if c == nil {
		return &ContextError{Problems: []string{"context is missing"}}
	}
	var problems []string
	if c.ProjectID == "" {
		problems = append(problems, "project id is empty")
	}
	if !periodKeyPattern.MatchString(c.PeriodKey) {
		problems = append(problems, fmt.Sprintf("period key %q is not YYYY-MM", c.PeriodKey))
	}
	for i, w := range c.WorkItems {
		if w.ID <= 0 {
			problems = append(problems, fmt.Sprintf("work item %d has no id", i))
		}
	}
	if len(problems) > 0 {
		return &ContextError{Problems: problems}
	}
	return nil
}

// PeriodLabel formats the period key as "MM/YYYY".
func (c *GenerationContext) PeriodLabel() string {
	if len(c.PeriodKey) != 7 {
		return c.PeriodKey
	}
	return c.PeriodKey[5:] + "/" + c.PeriodKey[:4]
}

// MemberByName finds a team member by display name or email.
func (c *GenerationContext) MemberByName(name string) (TeamMember, bool) {
	for _, m := range c.TeamMembers {
		if m.Name == name || (m.Email != "" && m.Email == name) {
			return m, true
		}
	}
	return TeamMember{}, false
}

// ValidPeriodKey reports whether s is a "YYYY-MM" period key.
func ValidPeriodKey(s string) bool {
	return periodKeyPattern.MatchString(s)
}
