package rod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-agent/internal/usecase/keymap"
)

func TestParseDialogHTML_Empty(t *testing.T) {
	snap, err := parseDialogHTML("")
	require.NoError(t, err)
	assert.False(t, snap.Present)

	snap, err = parseDialogHTML("   \n")
	require.NoError(t, err)
	assert.False(t, snap.Present)
}

func TestParseDialogHTML_PermissionDialog(t *testing.T) {
	raw := `<div role="dialog">
		<h2>Permission required</h2>
		<p>Run <strong>Bash</strong> from shell</p>
		<div class="actions">
			<button>No, cancel</button>
			<button>Yes</button>
		</div>
	</div>`

	snap, err := parseDialogHTML(raw)
	require.NoError(t, err)

	assert.True(t, snap.Present)
	assert.Equal(t, "Permission required Run Bash from shell", snap.Description)

	require.Len(t, snap.Buttons, 2)
	assert.Equal(t, "No, cancel", snap.Buttons[0].Label)
	assert.Equal(t, "Yes", snap.Buttons[1].Label)
	assert.Contains(t, snap.Buttons[0].Selector, "[1]")
	assert.Contains(t, snap.Buttons[1].Selector, "[2]")
}

func TestParseDialogHTML_RoleButton(t *testing.T) {
	raw := `<div role="dialog">
		<p>Run Grep from search</p>
		<span role="button" class="primary">Allow</span>
	</div>`

	snap, err := parseDialogHTML(raw)
	require.NoError(t, err)

	require.Len(t, snap.Buttons, 1)
	assert.Equal(t, "Allow", snap.Buttons[0].Label)
}

func TestParseDialogHTML_ButtonTextExcludedFromDescription(t *testing.T) {
	raw := `<div role="dialog">
		<p>Run Bash from shell</p>
		<button>Run anyway</button>
	</div>`

	snap, err := parseDialogHTML(raw)
	require.NoError(t, err)

	assert.Equal(t, "Run Bash from shell", snap.Description)
	assert.NotContains(t, snap.Description, "anyway")
}

func TestParseDialogHTML_NestedButtonContent(t *testing.T) {
	raw := `<div role="dialog">
		<p>シェルからBashを実行</p>
		<button><span class="icon"></span><span>はい</span></button>
	</div>`

	snap, err := parseDialogHTML(raw)
	require.NoError(t, err)

	require.Len(t, snap.Buttons, 1)
	assert.Equal(t, "はい", snap.Buttons[0].Label)
	assert.Equal(t, "シェルからBashを実行", snap.Description)
}

func TestRenderKeyHook(t *testing.T) {
	script, err := renderKeyHook(keymap.DefaultRule())
	require.NoError(t, err)

	assert.Contains(t, script, `ev.key !== "Enter"`)
	assert.Contains(t, script, "shiftKey: true")
	assert.Contains(t, script, "ev.preventDefault()")
	assert.Contains(t, script, "ev.stopImmediatePropagation()")
	// Capture phase is required to pre-empt the page's own handlers.
	assert.Contains(t, script, "}, true);")
}
