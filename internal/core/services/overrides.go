package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure OverrideService implements the interface.
var _ driving.OverrideService = (*OverrideService)(nil)

// ApplyOverrides returns a deep copy of base with every override applied.
// Overrides whose key is malformed or addresses a missing element are
// skipped with a warning; the others still apply. Top-level keys apply
// before nested ones so a replaced activity list can still be patched.
func ApplyOverrides(base domain.PlaceholderMap, overrides domain.Overrides) domain.PlaceholderMap {
	out := base.Clone()
	if out == nil {
		out = make(domain.PlaceholderMap)
	}

	type parsed struct {
		raw      string
		key      domain.FieldKey
		override domain.Override
	}
	var ordered []parsed
	for raw, o := range overrides {
		key, err := domain.ParseFieldKey(raw)
		if err != nil {
			logger.Warn("override %q skipped: %v", raw, err)
			continue
		}
		ordered = append(ordered, parsed{raw: raw, key: key, override: o})
	}
	sort.Slice(ordered, func(i, j int) bool {
		di, dj := keyDepth(ordered[i].key), keyDepth(ordered[j].key)
		if di != dj {
			return di < dj
		}
		return ordered[i].raw < ordered[j].raw
	})

	for _, p := range ordered {
		if err := applyOverride(out, p.key, p.override.NewValue); err != nil {
			logger.Warn("override %q skipped: %v", p.raw, err)
		}
	}
	return out
}

func keyDepth(k domain.FieldKey) int {
	switch {
	case k.ResponsibleIndex != nil:
		return 2
	case k.ActivityIndex != nil:
		return 1
	default:
		return 0
	}
}

func applyOverride(m domain.PlaceholderMap, key domain.FieldKey, value any) error {
	if _, ok := domain.SectionOfKey(key); !ok && !key.IsTopLevel() {
		return fmt.Errorf("%s is not an activity or responsible record key", key.Name)
	}
	if key.IsTopLevel() {
		m[key.Name] = domain.CloneValue(value)
		return nil
	}

	activity, err := activityRecord(m, *key.ActivityIndex)
	if err != nil {
		return err
	}
	if key.ResponsibleIndex == nil {
		activity[key.Name] = domain.CloneValue(value)
		return nil
	}

	person, err := responsibleRecord(activity, *key.ActivityIndex, *key.ResponsibleIndex)
	if err != nil {
		return err
	}
	person[key.Name] = domain.CloneValue(value)
	return nil
}

// activityRecord returns activity i of the map, normalising the list to the
// JSON shape so writes land in m.
func activityRecord(m domain.PlaceholderMap, i int) (map[string]any, error) {
	list, ok := domain.AsList(m[domain.FieldActivities])
	if !ok {
		return nil, fmt.Errorf("%s is not a list", domain.FieldActivities)
	}
	m[domain.FieldActivities] = list
	if i >= len(list) {
		return nil, fmt.Errorf("activity index %d out of range (%d activities)", i, len(list))
	}
	rec, ok := domain.AsRecord(list[i])
	if !ok {
		return nil, fmt.Errorf("activity %d is not a record", i)
	}
	return rec, nil
}

func responsibleRecord(activity map[string]any, i, j int) (map[string]any, error) {
	list, ok := domain.AsList(activity[domain.FieldResponsibles])
	if !ok {
		return nil, fmt.Errorf("activity %d has no %s list", i, domain.FieldResponsibles)
	}
	activity[domain.FieldResponsibles] = list
	if j >= len(list) {
		return nil, fmt.Errorf("responsible index %d out of range (%d in activity %d)", j, len(list), i)
	}
	rec, ok := domain.AsRecord(list[j])
	if !ok {
		return nil, fmt.Errorf("responsible %d of activity %d is not a record", j, i)
	}
	return rec, nil
}

// lookupValue reads the value a key addresses, or nil when it is absent.
func lookupValue(m domain.PlaceholderMap, key domain.FieldKey) any {
	if key.IsTopLevel() {
		return domain.CloneValue(m[key.Name])
	}
	list, _ := domain.AsList(m[domain.FieldActivities])
	if *key.ActivityIndex >= len(list) {
		return nil
	}
	activity, _ := domain.AsRecord(list[*key.ActivityIndex])
	if key.ResponsibleIndex == nil {
		return domain.CloneValue(activity[key.Name])
	}
	people, _ := domain.AsList(activity[domain.FieldResponsibles])
	if *key.ResponsibleIndex >= len(people) {
		return nil
	}
	person, _ := domain.AsRecord(people[*key.ResponsibleIndex])
	return domain.CloneValue(person[key.Name])
}

// placeholdersFor recomputes the final map of a record from its normalization.
func placeholdersFor(rec *domain.GenerationRecord) domain.PlaceholderMap {
	return ApplyOverrides(domain.PlaceholderMapFrom(rec.PartialResults.Normalization), rec.Overrides)
}

// OverrideService manages manual field corrections.
type OverrideService struct {
	store driven.GenerationStore
	guard *RunGuard
	now   func() time.Time
}

// NewOverrideService creates a new override service.
func NewOverrideService(store driven.GenerationStore, guard *RunGuard) *OverrideService {
	if guard == nil {
		guard = NewRunGuard()
	}
	return &OverrideService{store: store, guard: guard, now: time.Now}
}

// SetOverride stores a replacement value for fieldKey.
// The value the key addressed before any override is kept as OriginalValue.
func (s *OverrideService) SetOverride(ctx context.Context, id, fieldKey string, value any, reason string) (*domain.GenerationRecord, error) {
	key, err := domain.ParseFieldKey(fieldKey)
	if err != nil {
		return nil, fmt.Errorf("set override: %w", err)
	}
	section, ok := domain.SectionOfKey(key)
	if !ok {
		return nil, fmt.Errorf("set override: %w: unknown field %s", domain.ErrInvalidInput, key.String())
	}

	release, err := s.guard.Acquire(id, "override")
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	if rec.Overrides == nil {
		rec.Overrides = make(domain.Overrides)
	}

	original := lookupValue(domain.PlaceholderMapFrom(rec.PartialResults.Normalization), key)
	if prev, ok := rec.Overrides[key.String()]; ok {
		original = prev.OriginalValue
	}

	rec.Overrides[key.String()] = domain.Override{
		FieldKey:         key.String(),
		SectionName:      section,
		ActivityIndex:    key.ActivityIndex,
		ResponsibleIndex: key.ResponsibleIndex,
		OriginalValue:    original,
		NewValue:         domain.CloneValue(value),
		Reason:           reason,
		EditedAt:         s.now().UTC(),
	}
	if rec.PartialResults.Normalization != nil {
		rec.PartialResults.PlaceholderMap = placeholdersFor(rec)
	}
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save generation: %w", err)
	}
	logger.Info("override %s set on generation %s", key.String(), id)
	return rec, nil
}

// RemoveOverride drops the override for fieldKey.
func (s *OverrideService) RemoveOverride(ctx context.Context, id, fieldKey string) (*domain.GenerationRecord, error) {
	release, err := s.guard.Acquire(id, "override")
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	if _, ok := rec.Overrides[fieldKey]; !ok {
		return nil, fmt.Errorf("remove override %s: %w", fieldKey, domain.ErrNotFound)
	}

	delete(rec.Overrides, fieldKey)
	if rec.PartialResults.Normalization != nil {
		rec.PartialResults.PlaceholderMap = placeholdersFor(rec)
	}
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save generation: %w", err)
	}
	logger.Info("override %s removed from generation %s", fieldKey, id)
	return rec, nil
}

// ListOverrides returns the overrides of a generation ordered by field key.
func (s *OverrideService) ListOverrides(ctx context.Context, id string) ([]domain.Override, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	out := make([]domain.Override, 0, len(rec.Overrides))
	for _, o := range rec.Overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldKey < out[j].FieldKey })
	return out, nil
}
