package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctrlE = tea.KeyMsg{Type: tea.KeyCtrlE}

func newFocused(query string) Model {
	m := New()
	m.SetSize(60, 10)
	m.SetFocused(true)
	m.SetQuery(query)
	return m
}

func TestSelectRunsImmediately(t *testing.T) {
	m := newFocused("  select * from users ")

	m, cmd := m.Update(ctrlE)
	require.NotNil(t, cmd)
	assert.Equal(t, ExecuteQueryMsg{Query: "select * from users"}, cmd())
	assert.False(t, m.Armed())
}

func TestMutationNeedsSecondSubmit(t *testing.T) {
	m := newFocused("DELETE FROM users")

	m, cmd := m.Update(ctrlE)
	require.NotNil(t, cmd)
	assert.Equal(t, ConfirmQueryMsg{Query: "DELETE FROM users"}, cmd())
	assert.True(t, m.Armed())
	assert.Contains(t, m.View(), "press Ctrl+E again")

	m, cmd = m.Update(ctrlE)
	require.NotNil(t, cmd)
	assert.Equal(t, ExecuteQueryMsg{Query: "DELETE FROM users"}, cmd())
	assert.False(t, m.Armed())
}

func TestEditingDisarms(t *testing.T) {
	m := newFocused("DELETE FROM users")

	m, _ = m.Update(ctrlE)
	require.True(t, m.Armed())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(";")})
	assert.False(t, m.Armed())

	_, cmd := m.Update(ctrlE)
	require.NotNil(t, cmd)
	assert.IsType(t, ConfirmQueryMsg{}, cmd())
}

func TestEscDisarms(t *testing.T) {
	m := newFocused("DROP TABLE users")

	m, _ = m.Update(ctrlE)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Armed())
}

func TestEmptyQueryIgnored(t *testing.T) {
	m := newFocused("   ")
	_, cmd := m.Update(ctrlE)
	assert.Nil(t, cmd)
}

func TestBlurredIgnoresKeys(t *testing.T) {
	m := newFocused("SELECT 1")
	m.SetFocused(false)
	_, cmd := m.Update(ctrlE)
	assert.Nil(t, cmd)
}

func TestFormatKeywords(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"select * from users where id = 1", "SELECT * FROM users WHERE id = 1"},
		{"select 'from where' from t", "SELECT 'from where' FROM t"},
		{`select "select" from t2`, `SELECT "select" FROM t2`},
		{"delete from t returning id", "DELETE FROM t RETURNING id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatKeywords(tt.in))
	}
}

func TestCompletion(t *testing.T) {
	assert.Equal(t, []string{"users", "user_roles"}, Complete([]string{"orders", "users", "user_roles"}, "US"))
	assert.Empty(t, Complete([]string{"orders"}, "x"))

	m := newFocused("SELECT * FROM us")
	m.SetTableNames([]string{"orders", "users", "user_roles"})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "SELECT * FROM users", m.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "SELECT * FROM user_roles", m.Value())
}

func TestCompletionOutsideTableContext(t *testing.T) {
	m := newFocused("SELECT us")
	m.SetTableNames([]string{"users"})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.NotEqual(t, "SELECT users", m.Value())
}
