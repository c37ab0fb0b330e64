package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInheritUsesChapterDefault(t *testing.T) {
	ch := ChapterRef{ID: "ch1", DefaultExecutionMode: ModeIsolated}
	sec := SectionRef{ID: "s1", ChapterID: "ch1", Type: SectionPython, ExecutionMode: ModeInherit}

	res, err := Resolve(ch, sec)
	require.NoError(t, err)
	assert.Equal(t, ModeIsolated, res.EffectiveMode)
	assert.Equal(t, "s1", res.InterpreterKey, "isolated sections key on their own id")
}

func TestResolveExplicitOverrideWins(t *testing.T) {
	ch := ChapterRef{ID: "ch1", DefaultExecutionMode: ModeShared}
	sec := SectionRef{ID: "s2", ChapterID: "ch1", Type: SectionPython, ExecutionMode: ModeIsolated}

	res, err := Resolve(ch, sec)
	require.NoError(t, err)
	assert.Equal(t, ModeIsolated, res.EffectiveMode)
	assert.Equal(t, "s2", res.InterpreterKey)
}

func TestResolveSharedKeysOnChapter(t *testing.T) {
	ch := ChapterRef{ID: "ch1", DefaultExecutionMode: ModeShared}
	sec := SectionRef{ID: "s1", ChapterID: "ch1", Type: SectionPython, ExecutionMode: ModeInherit}

	res, err := Resolve(ch, sec)
	require.NoError(t, err)
	assert.Equal(t, ModeShared, res.EffectiveMode)
	assert.Equal(t, "ch1", res.InterpreterKey)
}

func TestResolveTotalAndDeterministic(t *testing.T) {
	defaults := []Mode{ModeShared, ModeIsolated}
	sectionModes := []Mode{ModeShared, ModeIsolated, ModeInherit}
	for _, d := range defaults {
		for _, m := range sectionModes {
			ch := ChapterRef{ID: "ch", DefaultExecutionMode: d}
			sec := SectionRef{ID: "sec", ChapterID: "ch", Type: SectionPython, ExecutionMode: m}
			first, err := Resolve(ch, sec)
			require.NoError(t, err, "default=%s section=%s", d, m)
			require.Contains(t, []Mode{ModeShared, ModeIsolated}, first.EffectiveMode)
			second, err := Resolve(ch, sec)
			require.NoError(t, err)
			assert.Equal(t, first, second, "repeated calls must agree")
		}
	}
}

func TestResolveFailsClosed(t *testing.T) {
	ch := ChapterRef{ID: "ch1", DefaultExecutionMode: ModeShared}

	_, err := Resolve(ch, SectionRef{ID: "s1", ChapterID: "ch1", ExecutionMode: Mode("turbo")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "execution_mode", verr.Field)

	_, err = Resolve(ChapterRef{ID: "ch1", DefaultExecutionMode: ModeInherit}, SectionRef{ID: "s1", ChapterID: "ch1"})
	require.ErrorAs(t, err, &verr, "INHERIT must not survive as a chapter default")

	_, err = Resolve(ch, SectionRef{ID: "s1", ChapterID: "other", ExecutionMode: ModeInherit})
	require.Error(t, err, "section must belong to the chapter")
}

// End-to-end shape of a typical chapter: one shared and one isolated
// section.
func TestResolveChapterScenario(t *testing.T) {
	ch := ChapterRef{ID: "ch1", DefaultExecutionMode: ModeShared}
	s1 := SectionRef{ID: "s1", ChapterID: "ch1", Type: SectionPython, ExecutionMode: ModeInherit}
	s2 := SectionRef{ID: "s2", ChapterID: "ch1", Type: SectionPython, ExecutionMode: ModeIsolated}

	r1, err := Resolve(ch, s1)
	require.NoError(t, err)
	r2, err := Resolve(ch, s2)
	require.NoError(t, err)

	assert.Equal(t, Resolution{EffectiveMode: ModeShared, InterpreterKey: "ch1"}, r1)
	assert.Equal(t, Resolution{EffectiveMode: ModeIsolated, InterpreterKey: "s2"}, r2)
	assert.NotEqual(t, r1.InterpreterKey, r2.InterpreterKey,
		"isolated section must never observe the shared interpreter")

	// Re-running s1 resolves to the same instance key both times.
	r1again, err := Resolve(ch, s1)
	require.NoError(t, err)
	assert.Equal(t, r1.InterpreterKey, r1again.InterpreterKey)
}

func TestParseModeBoundary(t *testing.T) {
	for in, want := range map[string]Mode{
		"shared":     ModeShared,
		"SHARED":     ModeShared,
		" Isolated ": ModeIsolated,
		"inherit":    ModeInherit,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("both")
	assert.Error(t, err)

	_, err = ParseChapterMode("inherit")
	assert.Error(t, err, "chapter default domain excludes INHERIT")
}
