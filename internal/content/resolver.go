package content

import "fmt"

// ChapterRef is the slice of a chapter the resolver needs.
type ChapterRef struct {
	ID                   string
	DefaultExecutionMode Mode
}

// SectionRef is the slice of a section the resolver needs. ChapterID is the
// parent reference and must match the chapter passed to Resolve.
type SectionRef struct {
	ID            string
	ChapterID     string
	Type          SectionType
	ExecutionMode Mode
}

// Resolution is the derived execution context for one section. It is never
// persisted; both the authoring surface and the interpreter host recompute it
// from the same inputs.
type Resolution struct {
	EffectiveMode  Mode   `json:"effectiveMode"`
	InterpreterKey string `json:"interpreterKey"`
}

// Resolve computes the effective execution mode for a section and the key the
// interpreter host uses to pick an instance: the chapter id for SHARED (all
// shared sections of a chapter join one interpreter) and the section id for
// ISOLATED. Pure and deterministic; identical inputs always yield identical
// output.
//
// Invariant on success: EffectiveMode is exactly SHARED or ISOLATED, never
// INHERIT. Unrecognized stored modes are a data-integrity fault and fail
// closed with a *ValidationError.
func Resolve(chapter ChapterRef, section SectionRef) (Resolution, error) {
	if section.ChapterID != chapter.ID {
		return Resolution{}, fmt.Errorf("section %s does not belong to chapter %s", section.ID, chapter.ID)
	}
	if chapter.DefaultExecutionMode != ModeShared && chapter.DefaultExecutionMode != ModeIsolated {
		return Resolution{}, &ValidationError{Field: "default_execution_mode", Value: string(chapter.DefaultExecutionMode)}
	}

	effective := section.ExecutionMode
	if effective == ModeInherit || effective == "" {
		effective = chapter.DefaultExecutionMode
	}
	switch effective {
	case ModeShared:
		return Resolution{EffectiveMode: ModeShared, InterpreterKey: chapter.ID}, nil
	case ModeIsolated:
		return Resolution{EffectiveMode: ModeIsolated, InterpreterKey: section.ID}, nil
	}
	return Resolution{}, &ValidationError{Field: "execution_mode", Value: string(section.ExecutionMode)}
}
