package layer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/testutil"
)

func TestFileBaseSource(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteBaseLayout(t, dir, "WhiteFox-Blank.json", testutil.BaseKeys(2))
	testutil.WriteBaseLayout(t, dir, "WhiteFox-Blank.lts.json", testutil.BaseKeys(3))
	testutil.WriteFile(t, dir, "Kira-Broken.json", `{"matrix": [`)
	testutil.WriteFile(t, dir, "Kira-NoMatrix.json", `{"header": {}}`)

	src := FileBaseSource{Root: dir}

	keys, err := src.Load("WhiteFox", "Blank", false)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	keys, err = src.Load("WhiteFox", "Blank", true)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
	a, ok := keys[2].BaseAction()
	require.True(t, ok)
	assert.Equal(t, "K3", a.Key)

	_, err = src.Load("Kira", "Missing", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))

	_, err = src.Load("Kira", "Broken", false)
	require.Error(t, err)
	assert.False(t, errors.Is(err, oerrors.ErrNotFound))

	_, err = src.Load("Kira", "NoMatrix", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matrix")
}

func TestBaseFileName(t *testing.T) {
	assert.Equal(t, "MD1-Standard.json", BaseFileName("MD1", "Standard", false))
	assert.Equal(t, "WhiteFox-Blank.lts.json", BaseFileName("WhiteFox", "Blank", true))
}
