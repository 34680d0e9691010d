package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/driverkit/internal/testutil"
	"github.com/joshuapare/driverkit/pkg/ast"
	"github.com/joshuapare/driverkit/pkg/hive"
	"github.com/joshuapare/driverkit/pkg/hive/regfile"
	"github.com/joshuapare/driverkit/pkg/types"
)

type memHive struct {
	tree     *ast.Tree
	root     hive.Key
	closeErr error
	closed   int
}

func (h *memHive) Root() hive.Key {
	if h.root != nil {
		return h.root
	}
	return h.tree.Key()
}

func (h *memHive) Close() error {
	h.closed++
	return h.closeErr
}

// unreadableKey fails every value read.
type unreadableKey struct {
	hive.Key
}

func (unreadableKey) Value(string) (hive.Value, error) {
	return hive.Value{}, errors.New("value unreadable")
}

// memImage serves in-memory SYSTEM and SOFTWARE hives for an image root.
type memImage struct {
	root     string
	system   *memHive
	software *memHive
	failOpen string
}

func newMemImage() *memImage {
	return &memImage{
		root:     "img",
		system:   &memHive{tree: ast.NewTree()},
		software: &memHive{tree: ast.NewTree()},
	}
}

func (m *memImage) opener() hive.Opener {
	return hive.OpenerFunc(func(path string) (hive.Hive, error) {
		if path == m.failOpen {
			return nil, types.Errorf(types.ErrKindNotFound, "%s missing", path)
		}
		switch path {
		case hive.SystemHivePath(m.root):
			return m.system, nil
		case hive.SoftwareHivePath(m.root):
			return m.software, nil
		}
		return nil, errors.New("unexpected hive " + path)
	})
}

func (m *memImage) engine() *Engine {
	return New(m.opener(), m.root, nil)
}

func setText(t *testing.T, tree *ast.Tree, path, name, text string) {
	t.Helper()
	tree.EnsurePath(path)
	k, err := hive.OpenPath(tree.Key(), path)
	require.NoError(t, err)
	require.NoError(t, k.SetValue(hive.TextValue(name, types.REG_EXPAND_SZ, text)))
}

func text(t *testing.T, tree *ast.Tree, path, name string) (string, error) {
	t.Helper()
	k, err := hive.OpenPath(tree.Key(), path)
	if err != nil {
		return "", err
	}
	v, err := k.Value(name)
	if err != nil {
		return "", err
	}
	return v.Text, nil
}

const (
	staleID   = "qcwlan.inf_arm64_0000000000000000"
	currentID = "qcwlan.inf_arm64_89abcdef01234567"
)

func TestReconcilePathsBothHives(t *testing.T) {
	img := newMemImage()
	setText(t, img.system.tree, `ControlSet001\Services\qcwlan`, "ImagePath",
		`\SystemRoot\System32\DriverStore\FileRepository\`+staleID+`\qcwlan.sys`)
	setText(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup\PnpResources`, "Path",
		`C:\Windows\System32\DriverStore\FileRepository\`+staleID)

	stats, ok := img.engine().ReconcilePaths(context.Background(), []string{currentID})
	require.True(t, ok)
	assert.Equal(t, 2, stats.ValuesRewritten)

	got, err := text(t, img.system.tree, `ControlSet001\Services\qcwlan`, "ImagePath")
	require.NoError(t, err)
	assert.Equal(t, `\SystemRoot\System32\DriverStore\FileRepository\`+currentID+`\qcwlan.sys`, got)

	got, err = text(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup\PnpResources`, "Path")
	require.NoError(t, err)
	assert.Equal(t, `C:\Windows\System32\DriverStore\FileRepository\`+currentID, got)

	assert.Equal(t, 1, img.system.closed)
	assert.Equal(t, 1, img.software.closed)
}

func TestReconcilePathsEmptyIdentities(t *testing.T) {
	img := newMemImage()
	setText(t, img.system.tree, `Services\x`, "ImagePath", staleID)

	stats, ok := img.engine().ReconcilePaths(context.Background(), nil)
	require.True(t, ok)
	assert.False(t, stats.Changed())
	assert.False(t, img.system.tree.Dirty())
}

func TestReconcilePathsOpenFailure(t *testing.T) {
	img := newMemImage()
	img.failOpen = hive.SoftwareHivePath(img.root)
	setText(t, img.system.tree, `Services\x`, "ImagePath", staleID)

	stats, ok := img.engine().ReconcilePaths(context.Background(), []string{currentID})
	assert.False(t, ok)
	// SYSTEM was already processed and stays modified.
	assert.Equal(t, 1, stats.ValuesRewritten)
	assert.Equal(t, 1, img.system.closed)
}

func TestReconcilePathsValueReadFailure(t *testing.T) {
	img := newMemImage()
	setText(t, img.system.tree, `Services\x`, "ImagePath", staleID)
	require.NoError(t, img.system.tree.Key().SetValue(hive.TextValue("Root", types.REG_SZ, "x")))
	img.system.root = unreadableKey{img.system.tree.Key()}

	_, ok := img.engine().ReconcilePaths(context.Background(), []string{currentID})
	assert.False(t, ok)
	assert.Equal(t, 1, img.system.closed)
	assert.Zero(t, img.software.closed, "SOFTWARE is not opened after SYSTEM fails")
}

func TestReconcilePathsCloseFailure(t *testing.T) {
	img := newMemImage()
	setText(t, img.system.tree, `Services\x`, "ImagePath", staleID)
	img.system.closeErr = errors.New("disk full")

	_, ok := img.engine().ReconcilePaths(context.Background(), []string{currentID})
	assert.False(t, ok)
	assert.Equal(t, 1, img.system.closed)
}

func TestRemoveLeftoversCloseFailure(t *testing.T) {
	img := newMemImage()
	setText(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup\PnpResources`, "Inf", "oem3.inf")
	img.software.closeErr = errors.New("disk full")

	_, ok := img.engine().RemoveLeftovers(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 1, img.system.closed)
	assert.Equal(t, 1, img.software.closed)
}

func TestReconcilePathsPrefixInsideLongerName(t *testing.T) {
	const (
		usbID    = "usb.inf_amd64_1111111111111111"
		winusbID = "winusb.inf_amd64_2222222222222222"
		store    = `C:\Windows\System32\DriverStore\FileRepository\`
	)
	img := newMemImage()
	setText(t, img.system.tree, `ControlSet001\Services\usb`, "ImagePath", store+usbID+`\usb.sys`)
	setText(t, img.system.tree, `ControlSet001\Services\winusb`, "ImagePath", store+winusbID+`\winusb.sys`)

	img.system.tree.ClearDirty()

	ids := []string{usbID, winusbID}
	for run := 0; run < 2; run++ {
		stats, ok := img.engine().ReconcilePaths(context.Background(), ids)
		require.True(t, ok)
		assert.False(t, stats.Changed(), "run %d", run)

		got, err := text(t, img.system.tree, `ControlSet001\Services\usb`, "ImagePath")
		require.NoError(t, err)
		assert.Equal(t, store+usbID+`\usb.sys`, got)

		got, err = text(t, img.system.tree, `ControlSet001\Services\winusb`, "ImagePath")
		require.NoError(t, err)
		assert.Equal(t, store+winusbID+`\winusb.sys`, got)
	}
	assert.False(t, img.system.tree.Dirty())
}

func TestReconcilePathsCanceled(t *testing.T) {
	img := newMemImage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := img.engine().ReconcilePaths(ctx, []string{currentID})
	assert.False(t, ok)
	assert.Zero(t, img.system.closed)
}

func TestRemoveLeftovers(t *testing.T) {
	img := newMemImage()
	img.system.tree.EnsurePath(`ControlSet001\Enum\ACPI\QCOM0C1D\0`)
	img.system.tree.EnsurePath(`ControlSet001\Enum\ACPI\QCOM2465\0`)
	setText(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup`, "LastInf", "oem12.inf")
	setText(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup`, "Keep", `C:\Windows\inf\machine.inf`)

	stats, ok := img.engine().RemoveLeftovers(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, stats.KeysDeleted)
	assert.Equal(t, 1, stats.ValuesDeleted)

	assert.Nil(t, img.system.tree.FindNode(`ControlSet001\Enum\ACPI\QCOM0C1D`))
	assert.NotNil(t, img.system.tree.FindNode(`ControlSet001\Enum\ACPI\QCOM2465\0`))

	_, err := text(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup`, "LastInf")
	assert.ErrorIs(t, err, types.ErrNotFound)
	got, err := text(t, img.software.tree, `Microsoft\Windows\CurrentVersion\Setup`, "Keep")
	require.NoError(t, err)
	assert.Equal(t, `C:\Windows\inf\machine.inf`, got)
}

func TestResealFirstBoot(t *testing.T) {
	img := newMemImage()
	img.system.tree.EnsurePath(`HardwareConfig\{a-b}`)
	setText(t, img.system.tree, "HardwareConfig", "LastConfig", "{a-b}")
	setText(t, img.system.tree, "Setup", "Other", "x")

	found, err := img.engine().ResealFirstBoot(context.Background())
	require.NoError(t, err)
	assert.True(t, found)

	hw := img.system.tree.FindNode("HardwareConfig")
	require.NotNil(t, hw)
	assert.Empty(t, hw.Children)
	assert.Empty(t, hw.Values)
	assert.NotNil(t, img.system.tree.FindNode("Setup").FindValue("Other"))
	assert.Equal(t, 1, img.system.closed)
}

func TestResealFirstBootMissingKey(t *testing.T) {
	img := newMemImage()
	found, err := img.engine().ResealFirstBoot(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, img.system.closed)
}

func TestCurrentIdentities(t *testing.T) {
	root := t.TempDir()
	store := filepath.Join(root, "Windows", "System32", "DriverStore", "FileRepository")
	for name, files := range map[string][]string{
		"b.inf_arm64_1111111111111111": {"b.inf", "b.CAT"},
		"a.inf_arm64_2222222222222222": {"a.inf", "a.cat"},
		"nocat.inf_arm64_333333333333": {"nocat.inf"},
	} {
		dir := filepath.Join(store, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o644))
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(store, "stray.cat"), nil, 0o644))

	ids, err := CurrentIdentities(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.inf_arm64_2222222222222222", "b.inf_arm64_1111111111111111"}, ids)
}

func TestCurrentIdentitiesMissingStore(t *testing.T) {
	_, err := CurrentIdentities(t.TempDir())
	assert.Error(t, err)
}

func TestFixRegistryPathsOnRegFiles(t *testing.T) {
	root := testutil.NewImage(t,
		"[HKEY_LOCAL_MACHINE\\SYSTEM\\Services\\qcwlan]\r\n"+
			"\"Inf\"=\""+`C:\\Windows\\System32\\DriverStore\\FileRepository\\`+staleID+"\"\r\n",
		"")
	testutil.AddPackage(t, root, currentID)

	e := New(regfile.Opener{}, root, nil)
	stats, ok := e.FixRegistryPaths(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, stats.ValuesRewritten)

	h, err := regfile.Opener{}.Open(hive.SystemHivePath(root))
	require.NoError(t, err)
	defer h.Close()
	k, err := hive.OpenPath(h.Root(), `Services\qcwlan`)
	require.NoError(t, err)
	v, err := k.Value("Inf")
	require.NoError(t, err)
	assert.Equal(t, `C:\Windows\System32\DriverStore\FileRepository\`+currentID, v.Text)
}
