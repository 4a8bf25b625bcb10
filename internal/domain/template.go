package domain

import "encoding/json"

type TemplateID string

type Template struct {
	ID   TemplateID
	Name string
	HTML string
	// Design is the editor's document. It is passed through untouched.
	Design json.RawMessage
}

type TemplateDraft struct {
	Name   string
	HTML   string
	Design json.RawMessage
}
