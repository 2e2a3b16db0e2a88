package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryOneScriptEncodesSelector(t *testing.T) {
	t.Parallel()

	script, err := buildQueryOneScript(`h1[data-test="name"]`, "")
	require.NoError(t, err)
	assert.Contains(t, script, `document.querySelector("h1[data-test=\"name\"]")`)
	assert.Contains(t, script, `const attr = ""`)
}

func TestBuildQueryOneScriptWithAttribute(t *testing.T) {
	t.Parallel()

	script, err := buildQueryOneScript("img.avatar", "src")
	require.NoError(t, err)
	assert.Contains(t, script, `const attr = "src"`)
	assert.Contains(t, script, "getAttribute")
}

func TestBuildQueryAllScriptEncodesSelector(t *testing.T) {
	t.Parallel()

	script, err := buildQueryAllScript(`ul.skills li`, "")
	require.NoError(t, err)
	assert.Contains(t, script, `document.querySelectorAll("ul.skills li")`)
	assert.Contains(t, script, "Array.from")
}

func TestEncodeArgsNeutralizesQuoting(t *testing.T) {
	t.Parallel()

	sel, attr, err := encodeArgs(`a"); window.close(); ("`, `x"`)
	require.NoError(t, err)
	assert.Equal(t, `"a\"); window.close(); (\""`, sel)
	assert.Equal(t, `"x\""`, attr)
}
