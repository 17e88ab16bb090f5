package domain

// MergeByName folds fresh results into a prior list.
//
// Prior entries whose name is selected are replaced by the fresh entry of the
// same name when one exists and kept otherwise. Unselected prior entries are
// kept verbatim. Selected fresh entries missing from prior are appended once,
// in fresh order. Prior order is never changed.
func MergeByName[T Named](prior, fresh []T, selected FieldSet) []T {
	freshByName := make(map[string]T, len(fresh))
	for _, f := range fresh {
		if _, dup := freshByName[f.Name()]; !dup {
			freshByName[f.Name()] = f
		}
	}

	out := make([]T, 0, len(prior)+len(fresh))
	seen := make(map[string]bool, len(prior))
	for _, p := range prior {
		seen[p.Name()] = true
		if selected.Has(p.Name()) {
			if f, ok := freshByName[p.Name()]; ok {
				out = append(out, f)
				continue
			}
		}
		out = append(out, p)
	}

	for _, f := range fresh {
		if !selected.Has(f.Name()) || seen[f.Name()] {
			continue
		}
		seen[f.Name()] = true
		out = append(out, f)
	}
	return out
}

// MergeExtraction merges fresh section results into a prior extraction.
// Sections absent from prior are appended with their selected fields.
func MergeExtraction(prior, fresh *ExtractionOutput, selected FieldSet) *ExtractionOutput {
	out := &ExtractionOutput{}
	var priorSections []ExtractionSection
	if prior != nil {
		priorSections = prior.Sections
		out.TotalDurationMs = prior.TotalDurationMs
	}
	var freshSections []ExtractionSection
	if fresh != nil {
		freshSections = fresh.Sections
		out.TotalDurationMs += fresh.TotalDurationMs
	}

	for _, p := range priorSections {
		merged := p
		if f := findExtractionSection(freshSections, p.SectionName); f != nil {
			merged.Fields = MergeByName(p.Fields, f.Fields, selected)
			merged.TokensUsed = f.TokensUsed
			merged.DurationMs = f.DurationMs
			merged.Commentary = f.Commentary
		}
		out.Sections = append(out.Sections, merged)
	}
	for _, f := range freshSections {
		if findExtractionSection(priorSections, f.SectionName) != nil {
			continue
		}
		added := f
		added.Fields = MergeByName(nil, f.Fields, selected)
		out.Sections = append(out.Sections, added)
	}

	for _, s := range out.Sections {
		out.TotalTokens += s.TokensUsed
	}
	return out
}

// MergeNormalization merges fresh section results into a prior normalization.
// Sections absent from prior are appended with their selected fields.
func MergeNormalization(prior, fresh *NormalizationOutput, selected FieldSet) *NormalizationOutput {
	out := &NormalizationOutput{}
	var priorSections []NormalizationSection
	if prior != nil {
		priorSections = prior.Sections
		out.TotalDurationMs = prior.TotalDurationMs
	}
	var freshSections []NormalizationSection
	if fresh != nil {
		freshSections = fresh.Sections
		out.TotalDurationMs += fresh.TotalDurationMs
	}

	for _, p := range priorSections {
		merged := p
		if f := findNormalizationSection(freshSections, p.SectionName); f != nil {
			merged.Fields = MergeByName(p.Fields, f.Fields, selected)
			merged.TokensUsed = f.TokensUsed
			merged.DurationMs = f.DurationMs
			merged.Commentary = f.Commentary
		}
		out.Sections = append(out.Sections, merged)
	}
	for _, f := range freshSections {
		if findNormalizationSection(priorSections, f.SectionName) != nil {
			continue
		}
		added := f
		added.Fields = MergeByName(nil, f.Fields, selected)
		out.Sections = append(out.Sections, added)
	}

	for _, s := range out.Sections {
		out.TotalTokens += s.TokensUsed
	}
	return out
}

func findExtractionSection(sections []ExtractionSection, name SectionName) *ExtractionSection {
	for i := range sections {
		if sections[i].SectionName == name {
			return &sections[i]
		}
	}
	return nil
}

func findNormalizationSection(sections []NormalizationSection, name SectionName) *NormalizationSection {
	for i := range sections {
		if sections[i].SectionName == name {
			return &sections[i]
		}
	}
	return nil
}
