package domain

import (
	"fmt"
	"strings"
)

// SectionName identifies an independently reprocessable group of fields.
type SectionName string

// Report sections, in output order.
const (
	SectionProjectData SectionName = "dados_projeto"
	SectionActivities  SectionName = "atividades"
	SectionResults     SectionName = "resultados"
	SectionStatus      SectionName = "situacao"
)

// Report field names.
const (
	FieldProjectName    = "PROJETO_NOME"
	FieldProjectCode    = "PROJETO_CODIGO"
	FieldCompanyName    = "EMPRESA_NOME"
	FieldPeriod         = "PERIODO_REFERENCIA"
	FieldStartDate      = "DATA_INICIO"
	FieldEndDate        = "DATA_FIM"
	FieldCoordinator    = "COORDENADOR_NOME"
	FieldActivities     = "ATIVIDADES"
	FieldResults        = "RESULTADOS_ALCANCADOS"
	FieldIndicators     = "INDICADORES_PERIODO"
	FieldSummary        = "RESUMO_EXECUTIVO"
	FieldCurrentStatus  = "SITUACAO_ATUAL"
	FieldNextSteps      = "PROXIMOS_PASSOS"
	FieldReferenceDocs  = "DOCUMENTOS_REFERENCIA"
	FieldResponsibles   = "RESPONSAVEIS"
	FieldActivityName   = "NOME_ATIVIDADE"
	FieldActivityDesc   = "DESCRICAO_ATIVIDADE"
	FieldActivityPeriod = "PERIODO_ATIVIDADE"
	FieldActivityStatus = "STATUS_ATIVIDADE"
	FieldActivitySource = "FONTE_ATIVIDADE"
	FieldPersonName     = "NOME_RESPONSAVEL"
	FieldPersonCPF      = "CPF_RESPONSAVEL"
	FieldPersonDegree   = "TITULACAO"
	FieldPersonRole     = "FUNCAO"
	FieldPersonHours    = "DEDICACAO_HORAS"
)

// sectionCatalog lists the fields each section owns, in output order.
var sectionCatalog = []struct {
	name   SectionName
	fields []string
}{
	{SectionProjectData, []string{
		FieldProjectName, FieldProjectCode, FieldCompanyName, FieldPeriod,
		FieldStartDate, FieldEndDate, FieldCoordinator,
	}},
	{SectionActivities, []string{FieldActivities}},
	{SectionResults, []string{FieldResults, FieldIndicators}},
	{SectionStatus, []string{FieldSummary, FieldCurrentStatus, FieldNextSteps, FieldReferenceDocs}},
}

// AllSections returns every section name in output order.
func AllSections() []SectionName {
	out := make([]SectionName, len(sectionCatalog))
	for i, s := range sectionCatalog {
		out[i] = s.name
	}
	return out
}

// IsValid returns true if the section is part of the catalogue.
func (s SectionName) IsValid() bool {
	for _, c := range sectionCatalog {
		if c.name == s {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s SectionName) String() string {
	return string(s)
}

// Fields returns the field names owned by the section, or nil for unknown sections.
func (s SectionName) Fields() []string {
	for _, c := range sectionCatalog {
		if c.name == s {
			out := make([]string, len(c.fields))
			copy(out, c.fields)
			return out
		}
	}
	return nil
}

// SectionOf returns the section owning a top-level field.
func SectionOf(field string) (SectionName, bool) {
	for _, c := range sectionCatalog {
		for _, f := range c.fields {
			if f == field {
				return c.name, true
			}
		}
	}
	return "", false
}

// activityKeys and responsibleKeys are the keys a nested field key may name.
var (
	activityKeys = map[string]bool{
		FieldActivityName:   true,
		FieldActivityDesc:   true,
		FieldActivityPeriod: true,
		FieldActivityStatus: true,
		FieldActivitySource: true,
		FieldResponsibles:   true,
	}
	responsibleKeys = map[string]bool{
		FieldPersonName:   true,
		FieldPersonCPF:    true,
		FieldPersonDegree: true,
		FieldPersonRole:   true,
		FieldPersonHours:  true,
	}
)

// SectionOfKey returns the section a field key belongs to. Nested keys must
// name an activity record key (NAME[i]) or a responsible record key
// (NAME[i][j]).
func SectionOfKey(k FieldKey) (SectionName, bool) {
	switch {
	case k.ResponsibleIndex != nil:
		return SectionActivities, responsibleKeys[k.Name]
	case k.ActivityIndex != nil:
		return SectionActivities, activityKeys[k.Name]
	default:
		return SectionOf(k.Name)
	}
}

// ParseSectionName validates a user-supplied section name.
func ParseSectionName(s string) (SectionName, error) {
	name := SectionName(strings.ToLower(strings.TrimSpace(s)))
	if !name.IsValid() {
		return "", fmt.Errorf("%w: unknown section %q", ErrInvalidInput, s)
	}
	return name, nil
}

// FieldSet is a set of field names.
type FieldSet map[string]struct{}

// Has reports membership.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// FieldNamesFor returns the union of field names owned by the given sections.
func FieldNamesFor(sections []SectionName) FieldSet {
	out := make(FieldSet)
	for _, s := range sections {
		for _, f := range s.Fields() {
			out[f] = struct{}{}
		}
	}
	return out
}

// Responsible is one person responsible for an activity.
type Responsible struct {
	Name   string
	CPF    string
	Degree string
	Role   string
	Hours  float64
}

// Record returns the placeholder-map shape of the responsible.
func (r Responsible) Record() map[string]any {
	return map[string]any{
		FieldPersonName:   r.Name,
		FieldPersonCPF:    r.CPF,
		FieldPersonDegree: r.Degree,
		FieldPersonRole:   r.Role,
		FieldPersonHours:  r.Hours,
	}
}

// Activity is one entry of the ATIVIDADES list.
type Activity struct {
	Name         string
	Description  string
	Period       string
	Status       string
	Source       string // evidence location of the source entity, e.g. "work item #42"
	Responsibles []Responsible
}

// Record returns the placeholder-map shape of the activity.
func (a Activity) Record() map[string]any {
	people := make([]any, len(a.Responsibles))
	for i, r := range a.Responsibles {
		people[i] = r.Record()
	}
	rec := map[string]any{
		FieldActivityName:   a.Name,
		FieldActivityDesc:   a.Description,
		FieldActivityPeriod: a.Period,
		FieldActivityStatus: a.Status,
		FieldResponsibles:   people,
	}
	if a.Source != "" {
		rec[FieldActivitySource] = a.Source
	}
	return rec
}
