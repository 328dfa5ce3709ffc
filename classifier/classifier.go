package classifier

import (
	"haidetect.com/hai/types"
	"regexp"
	"strings"
)

// Target categories with their own classification rules.
const (
	CategoryAnatomy               = "anatomy"
	CategorySurgicalSite          = "surgical site"
	CategoryDrain                 = "drain"
	CategoryProcedure             = "procedure"
	CategoryDehiscence            = "dehiscence"
	CategoryUTI                   = "urinary tract infection"
	CategoryPneumonia             = "pneumonia"
	CategorySSI                   = "surgical site infection"
	CategorySuperficialSSI        = "superficial surgical site infection"
	CategoryDeepSSI               = "deep surgical site infection"
	CategoryOrganSpaceSSI         = "organ-space surgical site infection"
	CategoryNegatedSuperficialSSI = "negated superficial surgical site infection"

	explicitPrefix     = "explicit "
	noAnatomySuffix    = " - No Anatomy"
	temporalitySpacing = " - "
)

var severityRegex = regexp.MustCompile(`^([a-z-]+) surgical site infection$`)

// Mention is one marked target with the categories of the modifiers in its scope.
type Mention struct {
	TargetCategory     string
	ModifierCategories []string
	// surface text of anatomy and surgical site tags
	AnatomyLiterals []string
}

// Classifier turns a mention into an annotation. The returned annotation is unclassified
// (empty Classification) when the mention carries no infection evidence.
type Classifier func(mention Mention) (types.Annotation, error)

func IsWoundCategory(category string) bool {
	switch category {
	case CategoryAnatomy, CategorySurgicalSite, CategoryDrain:
		return true
	}
	return false
}

func isExplicitSSICategory(category string) bool {
	if strings.HasPrefix(category, explicitPrefix) {
		return true
	}
	switch category {
	case CategorySuperficialSSI, CategoryDeepSSI, CategoryOrganSpaceSSI, CategoryNegatedSuperficialSSI:
		return true
	}
	return false
}

func NewClassifier(schema *Schema) Classifier {
	return func(mention Mention) (types.Annotation, error) {
		category := normalizeCategory(mention.TargetCategory)
		modifiers := newCategorySet(mention.ModifierCategories)

		ann := types.Annotation{
			Annotator:          schema.Annotator(),
			TargetCategory:     category,
			ModifierCategories: append([]string(nil), mention.ModifierCategories...),
			Anatomy:            append([]string(nil), mention.AnatomyLiterals...),
			Attributes:         types.DefaultAttributes(),
		}
		if annType, ok := schema.TypeOf(category); ok {
			ann.Type = annType
		} else {
			// unknown categories pass through and are dropped by the caller
			ann.Type = types.AnnotationType(category)
		}

		switch {
		case IsWoundCategory(category):
			classifyWound(&ann, modifiers)
		case isExplicitSSICategory(category):
			if err := classifyExplicitSSI(&ann, category, modifiers); err != nil {
				return ann, err
			}
		case category == CategoryProcedure:
			classifyProcedure(&ann, modifiers, schema)
		case schema.IsKnownType(ann.Type):
			ann.Attributes.Assertion = modifiers.assertion()
			ann.Attributes.Temporality = modifiers.temporality()
		}

		ann.Classification = classify(ann, schema)
		return ann, nil
	}
}

func setSSI(ann *types.Annotation, class types.SSIClass) {
	ann.Type = types.EvidenceOfSSI
	ann.Attributes.SSI = &types.SSIAttributes{Class: class}
}

func classifyWound(ann *types.Annotation, modifiers categorySet) {
	switch {
	case modifiers[CategoryNegatedSuperficialSSI]:
		// negation is part of the modifier itself
		setSSI(ann, types.SSISuperficial)
		ann.Attributes.Assertion = types.AssertionNegated
		ann.Attributes.Temporality = modifiers.temporality()
	case modifiers[CategorySuperficialSSI]:
		setSSI(ann, types.SSISuperficial)
		ann.Attributes.Assertion = modifiers.assertion()
		ann.Attributes.Temporality = modifiers.temporality()
	case modifiers[CategoryDeepSSI]:
		setSSI(ann, types.SSIDeep)
		ann.Attributes.Assertion = modifiers.assertion()
		ann.Attributes.Temporality = modifiers.temporality()
	case modifiers[CategoryOrganSpaceSSI]:
		setSSI(ann, types.SSIOrganSpace)
		ann.Attributes.Assertion = modifiers.assertion()
		ann.Attributes.Temporality = modifiers.temporality()
	case modifiers[CategoryDehiscence]:
		// an opened wound is definite evidence, attributes stay at defaults
		setSSI(ann, types.SSISuperficial)
	default:
		ann.Type = types.AnnotationTypeNone
	}
}

func classifyExplicitSSI(ann *types.Annotation, category string, modifiers categorySet) error {
	name := strings.TrimPrefix(category, explicitPrefix)
	if name == CategoryNegatedSuperficialSSI {
		setSSI(ann, types.SSISuperficial)
		ann.Attributes.Assertion = types.AssertionNegated
		return nil
	}

	match := severityRegex.FindStringSubmatch(name)
	if match == nil {
		ann.Type = types.AnnotationTypeNone
		return &ClassificationError{TargetCategory: category, Reason: "no severity word in category"}
	}
	class := types.SSIClass(match[1])
	if !class.IsValid() {
		ann.Type = types.AnnotationTypeNone
		return &ClassificationError{TargetCategory: category, Reason: "unknown severity " + match[1]}
	}

	setSSI(ann, class)
	ann.Attributes.Assertion = modifiers.assertion()
	ann.Attributes.Temporality = modifiers.temporality()
	return nil
}

// classifyProcedure keeps risk-of-surgery language only when it is future or hypothetical.
func classifyProcedure(ann *types.Annotation, modifiers categorySet, schema *Schema) {
	hasSSIModifier := false
	for category := range modifiers {
		if schema.IsSSIModifier(category) {
			hasSSIModifier = true
			break
		}
	}
	if !hasSSIModifier {
		ann.Type = types.AnnotationTypeNone
		return
	}

	ann.Attributes.Temporality = modifiers.temporality()
	if ann.Attributes.Temporality != types.TemporalityFuture {
		ann.Type = types.AnnotationTypeNone
		return
	}
	setSSI(ann, types.SSISuperficial)
}

func classify(ann types.Annotation, schema *Schema) string {
	if ann.Type.IsNone() || !schema.IsKnownType(ann.Type) {
		return ""
	}

	classification := schema.Label(ann.Type, ann.Attributes.Assertion)
	if ann.Attributes.Temporality != types.TemporalityCurrent {
		classification += temporalitySpacing + ann.Attributes.Temporality.Label()
	}
	if schema.MarkMissingAnatomy() && ann.Type == types.EvidenceOfSSI && len(ann.Anatomy) == 0 {
		classification += noAnatomySuffix
	}
	return classification
}
