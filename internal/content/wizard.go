package content

import (
	"fmt"
	"strings"
)

// WizardStep is a stage of the course-builder flow. The flow is strictly
// linear: CourseInfo -> ChapterBuilder -> Review -> Done.
type WizardStep string

const (
	StepCourseInfo     WizardStep = "COURSE_INFO"
	StepChapterBuilder WizardStep = "CHAPTER_BUILDER"
	StepReview         WizardStep = "REVIEW"
	StepDone           WizardStep = "DONE"
)

// WizardDraft is the authoring state carried across steps. A failed submit
// returns to Review with the draft intact rather than discarding it.
type WizardDraft struct {
	Title    string
	Chapters []DraftChapter
}

type DraftChapter struct {
	Title    string
	Sections int
}

// Wizard guards transitions of the course-builder flow.
type Wizard struct {
	step  WizardStep
	Draft WizardDraft
}

func NewWizard() *Wizard {
	return &Wizard{step: StepCourseInfo}
}

func (w *Wizard) Step() WizardStep { return w.step }

// Next advances one step if the current step's guard passes; on rejection the
// step does not change and the error names what is missing.
func (w *Wizard) Next() error {
	switch w.step {
	case StepCourseInfo:
		if strings.TrimSpace(w.Draft.Title) == "" {
			return fmt.Errorf("course title is required")
		}
		w.step = StepChapterBuilder
		return nil
	case StepChapterBuilder:
		if len(w.Draft.Chapters) == 0 {
			return fmt.Errorf("at least one chapter is required")
		}
		var empty []string
		for i, ch := range w.Draft.Chapters {
			if ch.Sections == 0 {
				name := strings.TrimSpace(ch.Title)
				if name == "" {
					name = fmt.Sprintf("chapter %d", i+1)
				}
				empty = append(empty, name)
			}
		}
		if len(empty) > 0 {
			return fmt.Errorf("chapters without sections: %s", strings.Join(empty, ", "))
		}
		w.step = StepReview
		return nil
	case StepReview:
		w.step = StepDone
		return nil
	}
	return fmt.Errorf("wizard already finished")
}

// Back returns to the previous step. The flow has no cycles; Back exists so a
// rejected submit can surface its error while keeping the draft editable.
func (w *Wizard) Back() error {
	switch w.step {
	case StepChapterBuilder:
		w.step = StepCourseInfo
	case StepReview:
		w.step = StepChapterBuilder
	case StepDone:
		w.step = StepReview
	default:
		return fmt.Errorf("already at first step")
	}
	return nil
}

// Fail is called when the terminal create/update request fails: the flow
// returns to Review with an intact draft.
func (w *Wizard) Fail() {
	if w.step == StepDone {
		w.step = StepReview
	}
}
