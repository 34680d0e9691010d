package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/driverkit/pkg/types"
)

func TestParse(t *testing.T) {
	def, err := Parse(`
drivers = ["components/QC8180", " components\\Surface\\Duo ", ""]
apps = ["apps/Surface"]
`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("components", "QC8180"),
		filepath.Join("components", "Surface", "Duo"),
	}, def.Drivers)
	assert.Equal(t, []string{filepath.Join("apps", "Surface")}, def.Apps)
	assert.Equal(t, DefaultMaxAttempts, def.MaxAttempts)
}

func TestParseMaxAttempts(t *testing.T) {
	def, err := Parse("drivers = []\n[install]\nmax_attempts = 5\n")
	require.NoError(t, err)
	assert.Equal(t, 5, def.MaxAttempts)

	_, err = Parse("[install]\nmax_attempts = 0\n")
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind types.ErrKind
	}{
		{"parent", `drivers = ["components/../../etc"]`, types.ErrKindInvalid},
		{"absolute", `apps = ["/opt/apps"]`, types.ErrKindInvalid},
		{"drive", `drivers = ["C:\\repo\\x"]`, types.ErrKindInvalid},
		{"unknown key", `driver = ["x"]`, types.ErrKindInvalid},
		{"syntax", `drivers = [`, types.ErrKindFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			kind, ok := types.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.toml")
	require.NoError(t, os.WriteFile(path, []byte(`drivers = ["a"]`), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, def.Drivers)
	assert.Empty(t, def.Apps)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, types.ErrMissing)
}

func TestDirs(t *testing.T) {
	assert.Equal(t, []string{filepath.Join("repo", "a"), filepath.Join("repo", "b")}, Dirs("repo", []string{"a", "b"}))
}
