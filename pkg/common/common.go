package common

import "fmt"

// ConceptOrigin identifies which extraction path produced a concept.
type ConceptOrigin string

const (
	ConceptOriginText   ConceptOrigin = "text"
	ConceptOriginVisual ConceptOrigin = "visual"
)

// RelationType classifies a directed link between two concepts.
type RelationType string

const (
	RelationPrerequisite RelationType = "Prerequisite"
	RelationIsA          RelationType = "IsA"
	RelationPartOf       RelationType = "PartOf"
	RelationRelatedTo    RelationType = "RelatedTo"
	RelationUses         RelationType = "Uses"
	RelationExtends      RelationType = "Extends"
)

// DocumentBlock is a contiguous segment of text produced by parsing a
// document. Blocks are immutable once produced and keep document order.
type DocumentBlock struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Page    int    `json:"page"`
}

// Concept is a named, defined unit of knowledge extracted from a document.
// The name is the key under which the concept is stored in the knowledge
// graph; extraction does not guarantee name uniqueness, so downstream
// consumers must tolerate duplicates.
type Concept struct {
	Name       string        `json:"name"`
	Definition string        `json:"definition"`
	Importance int           `json:"importance"`
	Origin     ConceptOrigin `json:"origin"`
	Page       int           `json:"page,omitempty"`
	Related    []string      `json:"related,omitempty"`
}

// Relation is a typed, confidence-scored directed link between two
// concepts, identified by their names.
type Relation struct {
	Source     string       `json:"source"`
	Target     string       `json:"target"`
	Type       RelationType `json:"relation_type"`
	Confidence float64      `json:"confidence"`
}

// VisionConcept is the structured result of analyzing one document image
// with a vision model. It is lowered into a Concept before merging with
// the text-derived concepts.
type VisionConcept struct {
	Kind        string   `json:"type"`
	Description string   `json:"description"`
	Related     []string `json:"concepts"`
	Relevance   string   `json:"relevance"`
	Page        int      `json:"page"`
	ImageRef    string   `json:"image_ref"`
}

// visualImportance is assigned to every concept lowered from a vision
// result; image content is treated as high-signal.
const visualImportance = 8

// ToConcept lowers a vision result into the unified concept shape.
func (v VisionConcept) ToConcept() Concept {
	return Concept{
		Name:       v.ConceptName(),
		Definition: v.Description,
		Importance: visualImportance,
		Origin:     ConceptOriginVisual,
		Page:       v.Page,
		Related:    v.Related,
	}
}

// ConceptName derives the graph node name for a vision result. The page
// number keeps names from colliding across images of the same kind.
func (v VisionConcept) ConceptName() string {
	kind := v.Kind
	if kind == "" {
		kind = "Image"
	}
	return fmt.Sprintf("Visual: %s (Page %d)", kind, v.Page)
}
