package djconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportString(t *testing.T) {
	Register("registry_test.backends.Custom", "custom-backend")

	v, err := ImportString("registry_test.backends.Custom")
	require.NoError(t, err)
	assert.Equal(t, "custom-backend", v)

	// dashes normalise to underscores
	v, err = ImportString("registry-test.backends.Custom")
	require.NoError(t, err)
	assert.Equal(t, "custom-backend", v)
}

func TestImportStringErrors(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"nodots", `could not import "nodots"`},
		{"missing.module.Thing", `could not import "missing.module.Thing"`},
	}
	for _, c := range cases {
		_, err := ImportString(c.path)
		require.Error(t, err, c.path)
		assert.ErrorIs(t, err, ErrImportResolution)
		assert.Contains(t, err.Error(), c.want)
	}
}

func TestImportProfile(t *testing.T) {
	p, err := importProfile(DefaultProfilePath)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfilePath, p.Name)

	Register("registry_test.config.Value", Profile{Name: "value"})
	Register("registry_test.config.Pointer", &Profile{Name: "pointer"})
	Register("registry_test.config.Wrong", 42)

	p, err = importProfile("registry_test.config.Value")
	require.NoError(t, err)
	assert.Equal(t, "value", p.Name)

	p, err = importProfile("registry_test.config.Pointer")
	require.NoError(t, err)
	assert.Equal(t, "pointer", p.Name)

	_, err = importProfile("registry_test.config.Wrong")
	assert.ErrorIs(t, err, ErrImportResolution)
}

func TestImportStorage(t *testing.T) {
	b, err := ImportStorage(StorageFileSystem)
	require.NoError(t, err)
	assert.False(t, b.Remote)
	assert.Equal(t, "MEDIA_ROOT", b.LocationSetting)

	b, err = ImportStorage(StorageStaticS3)
	require.NoError(t, err)
	assert.True(t, b.Remote)

	_, err = ImportStorage(DefaultProfilePath)
	assert.ErrorIs(t, err, ErrImportResolution)
}
