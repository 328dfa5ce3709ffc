package classifier

import (
	"haidetect.com/hai/types"
	"fmt"
	"sort"
	"strings"
)

const DefaultAnnotator = "hai_detect"

// Schema holds the lookup tables of one rule revision. It is never mutated after construction,
// so a single value can be shared by any number of classifiers.
type Schema struct {
	annotator          string
	targetTypes        map[string]types.AnnotationType
	classifications    map[types.AnnotationType]map[types.Assertion]string
	exclusions         map[string]bool
	markMissingAnatomy bool
}

func defaultTargetTypes() map[string]types.AnnotationType {
	return map[string]types.AnnotationType{
		CategoryOrganSpaceSSI:         types.EvidenceOfSSI,
		CategoryDeepSSI:               types.EvidenceOfSSI,
		CategorySuperficialSSI:        types.EvidenceOfSSI,
		CategoryNegatedSuperficialSSI: types.EvidenceOfSSI,
		CategorySSI:                   types.EvidenceOfSSI,
		CategoryUTI:                   types.EvidenceOfUTI,
		CategoryPneumonia:             types.EvidenceOfPneumonia,
	}
}

func defaultClassifications() map[types.AnnotationType]map[types.Assertion]string {
	table := make(map[types.AnnotationType]map[types.Assertion]string, 3)
	for _, t := range []types.AnnotationType{types.EvidenceOfSSI, types.EvidenceOfUTI, types.EvidenceOfPneumonia} {
		// "Evidence of SSI" -> "SSI"
		name := strings.TrimPrefix(string(t), "Evidence of ")
		table[t] = map[types.Assertion]string{
			types.AssertionPresent:    "Positive Evidence of " + name,
			types.AssertionProbable:   "Positive Evidence of " + name,
			types.AssertionNegated:    "Negated Evidence of " + name,
			types.AssertionIndication: "Indication of " + name,
		}
	}
	return table
}

var defaultExclusions = []string{"infection", "discharge"}

// DefaultSchema is the latest rule revision: probable findings count as positive evidence.
func DefaultSchema() *Schema {
	schema := &Schema{
		annotator:       DefaultAnnotator,
		targetTypes:     defaultTargetTypes(),
		classifications: defaultClassifications(),
		exclusions:      make(map[string]bool, len(defaultExclusions)),
	}
	for _, e := range defaultExclusions {
		schema.exclusions[e] = true
	}
	return schema
}

// NewSchema validates cfg and copies its tables. Empty sections fall back to the defaults.
func NewSchema(cfg types.Configuration) (*Schema, error) {
	schema := DefaultSchema()
	if cfg.Annotator != "" {
		schema.annotator = cfg.Annotator
	}
	schema.markMissingAnatomy = cfg.MarkMissingAnatomy

	if len(cfg.TargetTypes) > 0 {
		schema.targetTypes = make(map[string]types.AnnotationType, len(cfg.TargetTypes))
		for category, annType := range cfg.TargetTypes {
			category = normalizeCategory(category)
			if category == "" || annType.IsNone() {
				return nil, fmt.Errorf("%w: empty target type mapping %q -> %q", ErrInvalidSchema, category, annType)
			}
			schema.targetTypes[category] = annType
		}
	}

	if len(cfg.Classifications) > 0 {
		schema.classifications = make(map[types.AnnotationType]map[types.Assertion]string, len(cfg.Classifications))
		for annType, labels := range cfg.Classifications {
			if annType.IsNone() {
				return nil, fmt.Errorf("%w: classification table for empty annotation type", ErrInvalidSchema)
			}
			row := make(map[types.Assertion]string, len(labels))
			for assertion, label := range labels {
				if !assertion.IsValid() {
					return nil, fmt.Errorf("%w: %s: unknown assertion %q", ErrInvalidSchema, annType, assertion)
				}
				if strings.TrimSpace(label) == "" {
					return nil, fmt.Errorf("%w: %s: empty label for %q", ErrInvalidSchema, annType, assertion)
				}
				row[assertion] = label
			}
			schema.classifications[annType] = row
		}
	}

	for _, annType := range schema.targetTypes {
		if _, ok := schema.classifications[annType]; !ok {
			return nil, fmt.Errorf("%w: annotation type %q has no classification table", ErrInvalidSchema, annType)
		}
	}

	if cfg.Exclusions != nil {
		schema.exclusions = make(map[string]bool, len(cfg.Exclusions))
		for _, e := range cfg.Exclusions {
			schema.exclusions[normalizeCategory(e)] = true
		}
	}

	return schema, nil
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func (s *Schema) Annotator() string {
	return s.annotator
}

func (s *Schema) MarkMissingAnatomy() bool {
	return s.markMissingAnatomy
}

// TypeOf maps a target category onto its annotation type.
func (s *Schema) TypeOf(category string) (types.AnnotationType, bool) {
	annType, ok := s.targetTypes[normalizeCategory(category)]
	return annType, ok
}

func (s *Schema) IsKnownType(annType types.AnnotationType) bool {
	_, ok := s.classifications[annType]
	return ok
}

// Label looks up the (type, assertion) label, falling back to the raw type string.
func (s *Schema) Label(annType types.AnnotationType, assertion types.Assertion) string {
	if label, ok := s.classifications[annType][assertion]; ok {
		return label
	}
	return string(annType)
}

func (s *Schema) IsExcluded(category string) bool {
	return s.exclusions[normalizeCategory(category)]
}

func (s *Schema) Exclusions() []string {
	res := make([]string, 0, len(s.exclusions))
	for e := range s.exclusions {
		res = append(res, e)
	}
	sort.Strings(res)
	return res
}

// IsSSIModifier reports whether the category belongs to the SSI vocabulary.
func (s *Schema) IsSSIModifier(category string) bool {
	return s.targetTypes[normalizeCategory(category)] == types.EvidenceOfSSI
}

// Labels returns every classification label without temporality suffix, sorted.
func (s *Schema) Labels() []string {
	seen := make(map[string]bool)
	var res []string
	for _, row := range s.classifications {
		for _, label := range row {
			if !seen[label] {
				seen[label] = true
				res = append(res, label)
			}
		}
	}
	sort.Strings(res)
	return res
}
