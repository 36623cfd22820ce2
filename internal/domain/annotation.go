package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AnnotationType discriminates the annotation union.
type AnnotationType string

const (
	AnnotationCitation  AnnotationType = "citation"
	AnnotationWebSearch AnnotationType = "web_search"
	AnnotationExtension AnnotationType = "extension"
)

// Citation points at a source document backing an assistant turn.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Page  int    `json:"page,omitempty"`
}

// WebSearchResult is one search hit attached to an assistant turn.
type WebSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Extension is free-form side data. Unknown annotation types decode into it
// with Key set to their type tag and Value holding the whole object.
type Extension struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Annotation is a typed side-data entry on a chat turn. Exactly one of the
// variant pointers is set, matching Type.
type Annotation struct {
	Type      AnnotationType
	Citation  *Citation
	WebSearch *WebSearchResult
	Extension *Extension
}

// UnmarshalJSON decodes the flat {"type": ..., ...fields} wire shape.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var head struct {
		Type AnnotationType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("failed to decode annotation: %w", err)
	}
	if head.Type == "" {
		return errors.New("annotation type is required")
	}

	*a = Annotation{Type: head.Type}
	switch head.Type {
	case AnnotationCitation:
		a.Citation = &Citation{}
		return json.Unmarshal(data, a.Citation)
	case AnnotationWebSearch:
		a.WebSearch = &WebSearchResult{}
		return json.Unmarshal(data, a.WebSearch)
	case AnnotationExtension:
		a.Extension = &Extension{}
		return json.Unmarshal(data, a.Extension)
	default:
		a.Type = AnnotationExtension
		a.Extension = &Extension{Key: string(head.Type), Value: append(json.RawMessage(nil), data...)}
		return nil
	}
}

// MarshalJSON encodes the annotation back into its flat wire shape.
func (a Annotation) MarshalJSON() ([]byte, error) {
	switch {
	case a.Citation != nil:
		return json.Marshal(struct {
			Type AnnotationType `json:"type"`
			Citation
		}{AnnotationCitation, *a.Citation})
	case a.WebSearch != nil:
		return json.Marshal(struct {
			Type AnnotationType `json:"type"`
			WebSearchResult
		}{AnnotationWebSearch, *a.WebSearch})
	case a.Extension != nil:
		return json.Marshal(struct {
			Type AnnotationType `json:"type"`
			Extension
		}{AnnotationExtension, *a.Extension})
	}
	return nil, fmt.Errorf("annotation %q has no value", a.Type)
}
