package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/roadmap/internal/types"
)

func TestTruncateSimple(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short text unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncate with ellipsis", "hello world", 8, "hello..."},
		{"very short maxLen", "hello world", 3, "..."},
		{"empty string", "", 10, ""},
		{"unicode chars", "héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateSimple(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateSimple(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	got := WrapText("the quick brown fox jumps\nover", 10)
	assert.Equal(t, "the quick\nbrown fox\njumps\nover", got)
	assert.Equal(t, "supercalifragilistic", WrapText("supercalifragilistic", 5))
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NO_COLOR disables color", map[string]string{"NO_COLOR": "1"}, false},
		{"empty NO_COLOR still disables", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "1"}, false},
		{"CLICOLOR=0 disables color", map[string]string{"CLICOLOR": "0"}, false},
		{"CLICOLOR_FORCE enables color", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"NO_COLOR beats CLICOLOR_FORCE", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "NO_COLOR", "CLICOLOR", "CLICOLOR_FORCE")
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			assert.Equal(t, tt.want, ShouldUseColor())
		})
	}
}

// clearEnv unsets keys for the rest of the test and restores them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestRenderWithoutColor(t *testing.T) {
	SetColor(false)
	t.Cleanup(func() { SetColor(ShouldUseColor()) })

	assert.Equal(t, "blocked", RenderStatus(types.StatusBlocked))
	assert.Equal(t, "blocked (declared in-progress)", RenderEffective(types.StatusInProgress, types.StatusBlocked))
	assert.Equal(t, "high", RenderRisk(types.RiskHigh))
	assert.Equal(t, "ISSUES", RenderCategory("issues"))
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(-5, 10))
}

func TestTable(t *testing.T) {
	SetColor(false)
	t.Cleanup(func() { SetColor(ShouldUseColor()) })

	out := Table([]string{"ID", "TITLE"}, [][]string{{"abcd1234", "Login"}, {"ef", "Signup page"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "ID"))
	assert.Equal(t, strings.Index(lines[1], "Login"), strings.Index(lines[2], "Signup"), "columns align")
}
