package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleName(t *testing.T) {
	got, err := Parse("break")
	require.NoError(t, err)
	assert.Equal(t, []Action{Break}, got)
}

func TestParse_Alias(t *testing.T) {
	for alias, want := range map[string]Action{
		"+block":  Place,
		"-block":  Break,
		"destroy": Break,
		"leave":   SessionLeft,
		"left":    SessionLeft,
	} {
		got, err := Parse(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, []Action{want}, got, alias)
	}
}

func TestParse_Group(t *testing.T) {
	got, err := Parse("container")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Action{Add, Remove}, got)
}

func TestParse_CaseAndWhitespace(t *testing.T) {
	got, err := Parse("  PLACE ")
	require.NoError(t, err)
	assert.Equal(t, []Action{Place}, got)
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("teleport")
	assert.Error(t, err)
}

func TestParseAll_DeduplicatesUnion(t *testing.T) {
	// "block" already contains place; the union must not repeat it.
	got, err := ParseAll([]string{"block", "place", "+block"})
	require.NoError(t, err)
	assert.Equal(t, []Action{Place, Break, Spawn, Despawn}, got)
}

func TestParseAll_PropagatesError(t *testing.T) {
	_, err := ParseAll([]string{"place", "nope"})
	assert.Error(t, err)
}

func TestString_Unknown(t *testing.T) {
	assert.Equal(t, "action(99)", Action(99).String())
	assert.False(t, Action(99).Valid())
}

func TestReportsOldName(t *testing.T) {
	old := []Action{Break, Remove, Despawn, Kill}
	for _, a := range old {
		assert.True(t, a.ReportsOldName(), a.String())
	}
	for _, a := range []Action{Place, Click, Spawn, Add, Chat, Update} {
		assert.False(t, a.ReportsOldName(), a.String())
	}
}
