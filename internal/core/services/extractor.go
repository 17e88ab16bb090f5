package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Confidence levels by source reliability.
const (
	confidenceConfigured    = 0.99
	confidenceMetadata      = 0.98
	confidenceDocuments     = 0.90
	confidenceDerived       = 0.85
	confidenceCurrentStatus = 0.82
	confidenceAggregated    = 0.80
	confidenceFallback      = 0.50
)

// Selection windows over the recent-first work item list.
const (
	defaultMaxActivities  = 20
	defaultMaxResultLines = 10
	defaultMaxNextSteps   = 10
)

// Context slice names reported in FieldResult.ContextUsed.
const (
	contextProject     = "project"
	contextWorkItems   = "workItems"
	contextSprints     = "sprints"
	contextStats       = "stats"
	contextDocuments   = "documents"
	contextWikiPages   = "wikiPages"
	contextTeamMembers = "teamMembers"
)

const (
	dateLayout               = "02/01/2006"
	statusActivityDone       = "Concluída"
	statusActivityInProgress = "Em andamento"
	statusActivityPlanned    = "Planejada"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Extractor derives report fields from a generation context.
type Extractor struct {
	enrich         *enricher
	maxActivities  int
	maxResultLines int
	maxNextSteps   int
}

// ExtractorOption configures the extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLLM enables best-effort commentary on extracted sections.
func WithExtractorLLM(llm driven.TextCompletionProvider, prompts driven.PromptStore) ExtractorOption {
	return func(e *Extractor) {
		e.enrich = &enricher{llm: llm, prompts: prompts}
	}
}

// WithMaxActivities bounds the activity list.
func WithMaxActivities(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxActivities = n
		}
	}
}

// NewExtractor creates an extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		maxActivities:  defaultMaxActivities,
		maxResultLines: defaultMaxResultLines,
		maxNextSteps:   defaultMaxNextSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract derives every section. A malformed context fails before any field is derived.
func (e *Extractor) Extract(ctx context.Context, gctx *domain.GenerationContext) (*domain.ExtractionOutput, error) {
	return e.run(ctx, gctx, domain.AllSections())
}

// ExtractSection derives the fields of one section only.
func (e *Extractor) ExtractSection(ctx context.Context, gctx *domain.GenerationContext, section domain.SectionName) (*domain.ExtractionOutput, error) {
	if !section.IsValid() {
		return nil, fmt.Errorf("extract section: %w: unknown section %q", domain.ErrInvalidInput, section)
	}
	return e.run(ctx, gctx, []domain.SectionName{section})
}

func (e *Extractor) run(ctx context.Context, gctx *domain.GenerationContext, sections []domain.SectionName) (*domain.ExtractionOutput, error) {
	if err := gctx.Validate(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	start := time.Now()
	out := &domain.ExtractionOutput{}
	view := newContextView(gctx)

	for _, name := range sections {
		sectionStart := time.Now()
		sec := domain.ExtractionSection{
			SectionName: name,
			Fields:      e.sectionFields(view, name),
		}

		if res, ok := e.enrich.complete(ctx, "extractor", driven.PromptExtractionReview, name, asJSON(sec.Fields)); ok {
			sec.Commentary = strings.TrimSpace(res.Text)
			sec.TokensUsed += res.TokensUsed
		}

		sec.DurationMs = time.Since(sectionStart).Milliseconds()
		out.TotalTokens += sec.TokensUsed
		out.Sections = append(out.Sections, sec)
		logger.Debug("extractor: section %s produced %d fields", name, len(sec.Fields))
	}

	out.TotalDurationMs = time.Since(start).Milliseconds()
	return out, nil
}

// sectionFields returns the fields a section owns, filtered to its field set.
func (e *Extractor) sectionFields(v *contextView, section domain.SectionName) []domain.FieldResult {
	var fields []domain.FieldResult
	switch section {
	case domain.SectionProjectData:
		fields = e.projectFields(v)
	case domain.SectionActivities:
		fields = []domain.FieldResult{e.activities(v)}
	case domain.SectionResults:
		fields = []domain.FieldResult{e.results(v), e.indicators(v)}
	case domain.SectionStatus:
		fields = []domain.FieldResult{e.summary(v), e.currentStatus(v), e.nextSteps(v), e.referenceDocs(v)}
	}

	allowed := domain.FieldNamesFor([]domain.SectionName{section})
	filtered := fields[:0]
	for _, f := range fields {
		if allowed.Has(f.FieldName) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// contextView holds derived orderings of the context, computed once per run.
type contextView struct {
	gctx   *domain.GenerationContext
	recent []domain.WorkItem
	done   []domain.WorkItem
	active []domain.WorkItem
	stats  domain.PeriodStats
}

func newContextView(gctx *domain.GenerationContext) *contextView {
	recent := make([]domain.WorkItem, len(gctx.WorkItems))
	copy(recent, gctx.WorkItems)
	sort.SliceStable(recent, func(i, j int) bool {
		ti, tj := recent[i].LastTouched(), recent[j].LastTouched()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return recent[i].ID < recent[j].ID
	})

	v := &contextView{gctx: gctx, recent: recent, stats: gctx.Stats}
	for _, w := range recent {
		if w.IsDone() {
			v.done = append(v.done, w)
		} else {
			v.active = append(v.active, w)
		}
	}

	if v.stats.TotalItems == 0 && len(recent) > 0 {
		v.stats = statsFromItems(recent)
	}
	return v
}

func statsFromItems(items []domain.WorkItem) domain.PeriodStats {
	s := domain.PeriodStats{TotalItems: len(items)}
	for _, w := range items {
		if w.IsDone() {
			s.CompletedItems++
		} else {
			s.ActiveItems++
		}
		s.CompletedHours += w.CompletedWork
		s.RemainingHours += w.RemainingWork
	}
	return s
}

func (e *Extractor) projectFields(v *contextView) []domain.FieldResult {
	p := v.gctx.Project
	projectEvidence := func(location, snippet string) []domain.Evidence {
		return []domain.Evidence{{
			SourceType: domain.SourceTypeProject,
			SourceID:   v.gctx.ProjectID,
			SourceName: firstNonEmpty(p.Name, v.gctx.ProjectID),
			Location:   location,
			Snippet:    domain.TruncateSnippet(snippet),
		}}
	}

	name := configuredField(domain.FieldProjectName, p.Name, confidenceConfigured, projectEvidence("project.name", p.Name))
	if p.Name == "" {
		name = filledField(domain.FieldProjectName, v.gctx.ProjectID, confidenceFallback,
			projectEvidence("project.id", v.gctx.ProjectID), contextProject)
	}

	return []domain.FieldResult{
		name,
		configuredField(domain.FieldProjectCode, p.Code, confidenceMetadata, projectEvidence("project.code", p.Code)),
		configuredField(domain.FieldCompanyName, p.Organization, confidenceMetadata, projectEvidence("project.organization", p.Organization)),
		filledField(domain.FieldPeriod, v.gctx.PeriodLabel(), confidenceConfigured,
			projectEvidence("periodKey", v.gctx.PeriodKey), contextProject),
		configuredField(domain.FieldStartDate, formatDate(p.StartDate), confidenceMetadata, projectEvidence("project.startDate", formatDate(p.StartDate))),
		configuredField(domain.FieldEndDate, formatDate(p.EndDate), confidenceMetadata, projectEvidence("project.endDate", formatDate(p.EndDate))),
		configuredField(domain.FieldCoordinator, p.Coordinator, confidenceMetadata, projectEvidence("project.coordinator", p.Coordinator)),
	}
}

func (e *Extractor) activities(v *contextView) domain.FieldResult {
	items := v.recent
	if len(items) > e.maxActivities {
		items = items[:e.maxActivities]
	}
	if len(items) == 0 {
		return noDataField(domain.FieldActivities, []any{}, contextWorkItems)
	}

	records := make([]any, 0, len(items))
	evidence := make([]domain.Evidence, 0, len(items))
	for _, w := range items {
		ev := workItemEvidence(w)
		a := e.activityFor(v, w)
		a.Source = ev.Location
		records = append(records, a.Record())
		evidence = append(evidence, ev)
	}

	used := []string{contextWorkItems}
	if len(v.gctx.TeamMembers) > 0 {
		used = append(used, contextTeamMembers)
	}
	return filledField(domain.FieldActivities, records, confidenceDerived, evidence, used...)
}

func (e *Extractor) activityFor(v *contextView, w domain.WorkItem) domain.Activity {
	a := domain.Activity{
		Name:        w.Title,
		Description: plainText(w.Description),
		Period:      activityPeriod(v.gctx, w),
		Status:      activityStatus(w),
	}
	if w.AssignedTo == "" {
		return a
	}
	r := domain.Responsible{Name: w.AssignedTo, Hours: w.CompletedWork}
	if m, ok := v.gctx.MemberByName(w.AssignedTo); ok {
		r.Name = m.Name
		r.CPF = m.CPF
		r.Degree = m.Degree
		r.Role = m.Role
	}
	a.Responsibles = []domain.Responsible{r}
	return a
}

func (e *Extractor) results(v *contextView) domain.FieldResult {
	items := v.done
	if len(items) > e.maxResultLines {
		items = items[:e.maxResultLines]
	}
	if len(items) == 0 {
		return noDataField(domain.FieldResults, []any{}, contextWorkItems)
	}
	lines := make([]any, 0, len(items))
	evidence := make([]domain.Evidence, 0, len(items))
	for _, w := range items {
		lines = append(lines, fmt.Sprintf("%s (#%d)", w.Title, w.ID))
		evidence = append(evidence, workItemEvidence(w))
	}
	return filledField(domain.FieldResults, lines, confidenceAggregated, evidence, contextWorkItems)
}

func (e *Extractor) indicators(v *contextView) domain.FieldResult {
	s := v.stats
	if s.TotalItems == 0 {
		return noDataField(domain.FieldIndicators, "", contextStats)
	}
	text := fmt.Sprintf(
		"%d itens no período: %d concluídos (%s), %d em andamento, %d novos. Horas realizadas: %s; horas restantes: %s.",
		s.TotalItems, s.CompletedItems, percent(s.CompletedItems, s.TotalItems),
		s.ActiveItems, s.NewItems, formatHours(s.CompletedHours), formatHours(s.RemainingHours),
	)
	return filledField(domain.FieldIndicators, text, confidenceAggregated, statsEvidence(v), contextStats)
}

func (e *Extractor) summary(v *contextView) domain.FieldResult {
	if v.stats.TotalItems == 0 && len(v.gctx.Sprints) == 0 {
		return noDataField(domain.FieldSummary, "", contextWorkItems, contextSprints)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "No período %s, o projeto %s registrou %d itens de trabalho, dos quais %d foram concluídos (%s).",
		v.gctx.PeriodLabel(), firstNonEmpty(v.gctx.Project.Name, v.gctx.ProjectID),
		v.stats.TotalItems, v.stats.CompletedItems, percent(v.stats.CompletedItems, v.stats.TotalItems))
	evidence := statsEvidence(v)
	if len(v.gctx.Sprints) > 0 {
		names := make([]string, 0, len(v.gctx.Sprints))
		for _, sp := range v.gctx.Sprints {
			names = append(names, sp.Name)
			evidence = append(evidence, sprintEvidence(sp))
		}
		fmt.Fprintf(&b, " Sprints do período: %s.", strings.Join(names, ", "))
	}
	if len(v.done) > 0 {
		fmt.Fprintf(&b, " Entrega mais recente: %s.", v.done[0].Title)
	}
	return filledField(domain.FieldSummary, b.String(), confidenceDerived, evidence, contextStats, contextSprints, contextWorkItems)
}

func (e *Extractor) currentStatus(v *contextView) domain.FieldResult {
	if len(v.active) == 0 {
		return noDataField(domain.FieldCurrentStatus, "", contextWorkItems)
	}
	top := v.active
	if len(top) > 3 {
		top = top[:3]
	}
	titles := make([]string, 0, len(top))
	evidence := make([]domain.Evidence, 0, len(top))
	for _, w := range top {
		titles = append(titles, w.Title)
		evidence = append(evidence, workItemEvidence(w))
	}
	text := fmt.Sprintf("%d itens em andamento, com %s horas restantes. Principais frentes: %s.",
		len(v.active), formatHours(v.stats.RemainingHours), strings.Join(titles, "; "))
	return filledField(domain.FieldCurrentStatus, text, confidenceCurrentStatus, evidence, contextWorkItems, contextStats)
}

func (e *Extractor) nextSteps(v *contextView) domain.FieldResult {
	items := v.active
	if len(items) > e.maxNextSteps {
		items = items[:e.maxNextSteps]
	}
	if len(items) == 0 {
		return noDataField(domain.FieldNextSteps, []any{}, contextWorkItems)
	}
	steps := make([]any, 0, len(items))
	evidence := make([]domain.Evidence, 0, len(items))
	for _, w := range items {
		steps = append(steps, w.Title)
		evidence = append(evidence, workItemEvidence(w))
	}
	return filledField(domain.FieldNextSteps, steps, confidenceAggregated, evidence, contextWorkItems)
}

func (e *Extractor) referenceDocs(v *contextView) domain.FieldResult {
	var names []any
	var evidence []domain.Evidence
	for _, d := range v.gctx.Documents {
		names = append(names, d.Name)
		evidence = append(evidence, domain.Evidence{
			SourceType: domain.SourceTypeDocument,
			SourceID:   d.ID,
			SourceName: d.Name,
			Location:   "document " + d.ID,
			Snippet:    domain.TruncateSnippet(d.Name),
			URL:        d.URL,
			Timestamp:  d.UploadedAt,
		})
	}
	for _, p := range v.gctx.WikiPages {
		names = append(names, p.Title)
		evidence = append(evidence, domain.Evidence{
			SourceType: domain.SourceTypeWiki,
			SourceID:   p.ID,
			SourceName: p.Title,
			Location:   firstNonEmpty(p.Path, "wiki "+p.ID),
			Snippet:    domain.TruncateSnippet(p.Title),
			URL:        p.URL,
			Timestamp:  p.UpdatedAt,
		})
	}
	if len(names) == 0 {
		return noDataField(domain.FieldReferenceDocs, []any{}, contextDocuments, contextWikiPages)
	}
	return filledField(domain.FieldReferenceDocs, names, confidenceDocuments, evidence, contextDocuments, contextWikiPages)
}

// configuredField reports a metadata value, or a pending field when it is not configured.
func configuredField(name, value string, confidence float64, evidence []domain.Evidence) domain.FieldResult {
	if strings.TrimSpace(value) == "" {
		return domain.FieldResult{
			FieldName:   name,
			Value:       "",
			Evidence:    []domain.Evidence{},
			Status:      domain.FieldStatusPending,
			ContextUsed: []string{contextProject},
		}
	}
	return filledField(name, value, confidence, evidence, contextProject)
}

func filledField(name string, value any, confidence float64, evidence []domain.Evidence, used ...string) domain.FieldResult {
	return domain.FieldResult{
		FieldName:   name,
		Value:       value,
		Evidence:    evidence,
		Confidence:  confidence,
		Status:      domain.FieldStatusFilled,
		ContextUsed: used,
	}
}

func noDataField(name string, empty any, used ...string) domain.FieldResult {
	return domain.FieldResult{
		FieldName:   name,
		Value:       empty,
		Evidence:    []domain.Evidence{},
		Status:      domain.FieldStatusNoData,
		ContextUsed: used,
	}
}

func workItemEvidence(w domain.WorkItem) domain.Evidence {
	snippet := w.Title
	if d := plainText(w.Description); d != "" {
		snippet += ": " + d
	}
	ev := domain.Evidence{
		SourceType: domain.SourceTypeWorkItem,
		SourceID:   strconv.Itoa(w.ID),
		SourceName: w.Title,
		Location:   fmt.Sprintf("work item #%d", w.ID),
		Snippet:    domain.TruncateSnippet(snippet),
		URL:        w.URL,
	}
	if t := w.LastTouched(); !t.IsZero() {
		ev.Timestamp = &t
	}
	return ev
}

func sprintEvidence(s domain.Sprint) domain.Evidence {
	return domain.Evidence{
		SourceType: domain.SourceTypeSprint,
		SourceID:   s.ID,
		SourceName: s.Name,
		Location:   "sprint " + s.Name,
		Snippet:    domain.TruncateSnippet(fmt.Sprintf("%s: %d/%d itens concluídos", s.Name, s.CompletedItems, s.TotalItems)),
		URL:        s.URL,
		Timestamp:  s.FinishDate,
	}
}

func statsEvidence(v *contextView) []domain.Evidence {
	s := v.stats
	return []domain.Evidence{{
		SourceType: domain.SourceTypeProject,
		SourceID:   v.gctx.ProjectID,
		SourceName: firstNonEmpty(v.gctx.Project.Name, v.gctx.ProjectID),
		Location:   "stats " + v.gctx.PeriodKey,
		Snippet: domain.TruncateSnippet(fmt.Sprintf("total=%d concluidos=%d ativos=%d novos=%d",
			s.TotalItems, s.CompletedItems, s.ActiveItems, s.NewItems)),
	}}
}

func activityStatus(w domain.WorkItem) string {
	if w.IsDone() {
		return statusActivityDone
	}
	switch w.State {
	case "Active", "In Progress", "Committed", "Doing":
		return statusActivityInProgress
	case "New", "To Do", "Proposed", "Approved":
		return statusActivityPlanned
	default:
		return w.State
	}
}

func activityPeriod(gctx *domain.GenerationContext, w domain.WorkItem) string {
	start := formatDate(w.CreatedDate)
	end := formatDate(w.ClosedDate)
	switch {
	case start != "" && end != "":
		return start + " a " + end
	case start != "":
		return "desde " + start
	default:
		return gctx.PeriodLabel()
	}
}

// plainText strips markup and collapses whitespace.
func plainText(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.Itoa(part*100/total) + "%"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
