package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardHappyPath(t *testing.T) {
	w := NewWizard()
	w.Draft.Title = "Python for Healthcare"
	require.NoError(t, w.Next())
	assert.Equal(t, StepChapterBuilder, w.Step())

	w.Draft.Chapters = []DraftChapter{{Title: "Intro", Sections: 2}}
	require.NoError(t, w.Next())
	assert.Equal(t, StepReview, w.Step())

	require.NoError(t, w.Next())
	assert.Equal(t, StepDone, w.Step())
}

func TestWizardRequiresTitle(t *testing.T) {
	w := NewWizard()
	w.Draft.Title = "   "
	assert.Error(t, w.Next())
	assert.Equal(t, StepCourseInfo, w.Step(), "step must not advance on rejection")
}

func TestWizardRejectsEmptyChapters(t *testing.T) {
	w := NewWizard()
	w.Draft.Title = "t"
	require.NoError(t, w.Next())

	assert.Error(t, w.Next(), "needs at least one chapter")

	w.Draft.Chapters = []DraftChapter{
		{Title: "Basics", Sections: 1},
		{Title: "Pandas", Sections: 0},
		{Title: "", Sections: 0},
	}
	err := w.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pandas", "error names the offending chapter")
	assert.Contains(t, err.Error(), "chapter 3")
	assert.Equal(t, StepChapterBuilder, w.Step())
}

func TestWizardFailedSubmitReturnsToReview(t *testing.T) {
	w := NewWizard()
	w.Draft.Title = "t"
	w.Draft.Chapters = []DraftChapter{{Title: "c", Sections: 1}}
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.Equal(t, StepDone, w.Step())

	w.Fail()
	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, "t", w.Draft.Title, "draft survives a failed submit")
}
