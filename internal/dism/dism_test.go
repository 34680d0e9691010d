package dism

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/driverkit/internal/install"
	"github.com/joshuapare/driverkit/pkg/types"
)

var _ install.Servicer = (*Servicer)(nil)

type fakeRunner struct {
	name string
	args []string
	out  string
	code int
	err  error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, int, error) {
	f.name, f.args = name, args
	return []byte(f.out), f.code, f.err
}

func newServicer(r Runner) *Servicer {
	s := New(`D:`)
	s.Runner = r
	return s
}

func TestAddDriver(t *testing.T) {
	r := &fakeRunner{}
	status := newServicer(r).AddDriver(context.Background(), `C:\repo\a.inf`)
	assert.Equal(t, types.StatusSuccess, status)
	assert.Equal(t, "dism.exe", r.name)
	assert.Equal(t, []string{`/Image:D:\`, "/English", "/Add-Driver", `/Driver:C:\repo\a.inf`}, r.args)
}

func TestAddPackageLicense(t *testing.T) {
	r := &fakeRunner{}
	s := newServicer(r)

	s.AddPackage(context.Background(), `C:\apps\x.appx`, `C:\apps\x.xml`)
	assert.Equal(t, []string{`/Image:D:\`, "/English", "/Add-ProvisionedAppxPackage",
		`/PackagePath:C:\apps\x.appx`, `/LicensePath:C:\apps\x.xml`}, r.args)

	s.AddPackage(context.Background(), `C:\apps\y.appx`, "")
	assert.Equal(t, "/SkipLicense", r.args[len(r.args)-1])
}

func TestExitCodeIsStatus(t *testing.T) {
	r := &fakeRunner{code: -1051262696}
	status := newServicer(r).AddDriver(context.Background(), "a.inf")
	assert.Equal(t, install.BenignStatus, status)
}

func TestLaunchFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("not found")}
	status := newServicer(r).AddDriver(context.Background(), "a.inf")
	assert.Equal(t, StatusLaunchFailed, status)
	assert.True(t, status.IsFailure())
}

func TestInstalledDrivers(t *testing.T) {
	r := &fakeRunner{out: "Deployment Image Servicing and Management tool\r\n\r\n" +
		"Published Name : oem0.inf\r\nOriginal File Name : qcwlan.inf\r\n\r\n" +
		"Published Name : oem1.inf\r\nOriginal File Name : qcsubsys.inf\r\n\r\n" +
		"The operation completed successfully.\r\n"}
	names, status := newServicer(r).InstalledDrivers(context.Background())
	require.Equal(t, types.StatusSuccess, status)
	assert.Equal(t, []string{"oem0.inf", "oem1.inf"}, names)
	assert.Equal(t, "/Get-Drivers", r.args[len(r.args)-1])
}
