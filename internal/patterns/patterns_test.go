package patterns

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/driverkit/pkg/types"
)

func TestStablePrefix(t *testing.T) {
	tests := []struct {
		identity string
		want     string
		ok       bool
	}{
		{"foo_bar_1a2b3c4d5e6f7890", "foo_bar_", true},
		{"acpi.inf_amd64_f8b60f94eae135e9", "acpi.inf_amd64_", true},
		{"single_0000000000000000", "single_", true},
		{"nohash", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			got, ok := StablePrefix(tt.identity)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewIdentityPatternRejectsNoPrefix(t *testing.T) {
	_, err := NewIdentityPattern("nohash")
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestIdentityPatternFind(t *testing.T) {
	p, err := NewIdentityPattern("foo_bar_1a2b3c4d5e6f7890")
	require.NoError(t, err)
	assert.Equal(t, "foo_bar_", p.Prefix)

	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"exact", "foo_bar_1a2b3c4d5e6f7890", "foo_bar_1a2b3c4d5e6f7890", true},
		{"stale hash in path", `C:\DriverStore\foo_bar_0000000000000000\x.sys`, "foo_bar_0000000000000000", true},
		{"upper case", `FOO_BAR_ABCDEF0123456789`, "FOO_BAR_ABCDEF0123456789", true},
		{"fifteen hex", "foo_bar_000000000000000", "", false},
		{"seventeen hex", "foo_bar_00000000000000000", "", false},
		{"non hex", "foo_bar_000000000000000g", "", false},
		{"other package", "foo_baz_0000000000000000", "", false},
		{"different separator", "fooXbar_0000000000000000", "", false},
		{"inside longer name", "xfoo_bar_0000000000000000", "", false},
		{"after dot", "a.foo_bar_0000000000000000", "", false},
		{"after quote", `"foo_bar_0000000000000000"`, "foo_bar_0000000000000000", true},
		{"later valid match", "xfoo_bar_1111111111111111;foo_bar_0000000000000000", "foo_bar_0000000000000000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Find(tt.in)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityPatternQuotesPrefix(t *testing.T) {
	p, err := NewIdentityPattern("qcdx.inf_arm64_0123456789abcdef")
	require.NoError(t, err)

	_, ok := p.Find("qcdxXinf_arm64_0123456789abcdef")
	assert.False(t, ok, "the dot in the prefix must not act as a wildcard")
}

func TestIdentityPatternNeedsNameBoundary(t *testing.T) {
	p, err := NewIdentityPattern("usb.inf_amd64_1111111111111111")
	require.NoError(t, err)

	_, ok := p.Find(`C:\Windows\System32\DriverStore\FileRepository\winusb.inf_amd64_2222222222222222\winusb.sys`)
	assert.False(t, ok)

	got, ok := p.Find(`C:\Windows\System32\DriverStore\FileRepository\usb.inf_amd64_2222222222222222\usb.sys`)
	assert.True(t, ok)
	assert.Equal(t, "usb.inf_amd64_2222222222222222", got)
}

func TestIdentityPatternFindStaleSkipsCurrent(t *testing.T) {
	p, err := NewIdentityPattern("foo_bar_1a2b3c4d5e6f7890")
	require.NoError(t, err)

	got, ok := p.FindStale("foo_bar_1a2b3c4d5e6f7890;foo_bar_0000000000000000")
	assert.True(t, ok)
	assert.Equal(t, "foo_bar_0000000000000000", got)

	_, ok = p.FindStale("foo_bar_1a2b3c4d5e6f7890")
	assert.False(t, ok)
}

func TestIdentityPatternReplaceOnlyWholeReferences(t *testing.T) {
	p, err := NewIdentityPattern("foo_bar_1a2b3c4d5e6f7890")
	require.NoError(t, err)

	in := `foo_bar_0000000000000000;foo_bar_00000000000000001;xfoo_bar_0000000000000000`
	got := p.Replace(in, "foo_bar_0000000000000000", p.Identity)
	assert.Equal(t, `foo_bar_1a2b3c4d5e6f7890;foo_bar_00000000000000001;xfoo_bar_0000000000000000`, got)

	assert.Equal(t, "unrelated", p.Replace("unrelated", "foo_bar_0000000000000000", p.Identity))
}

func TestNewSkipsBadIdentities(t *testing.T) {
	s := New(nil, "a_0000000000000000", "bad", "b_1111111111111111")
	require.Len(t, s.Identities, 2)
	assert.Equal(t, "a_0000000000000000", s.Identities[0].Identity)
	assert.Equal(t, "b_1111111111111111", s.Identities[1].Identity)
}

func TestIsOrphan(t *testing.T) {
	s := New(nil)

	tests := []struct {
		in   string
		want bool
	}{
		{"oem12.inf", true},
		{`C:\Windows\INF\OEM3.INF`, true},
		{`ACPI\QCOM0A1B`, true},
		{`ACPI\VEN_MSHW&DEV_0042`, true},
		{"surface_duo_touch.inf", true},
		{`\SystemRoot\System32\drivers\qcsubsys.sys`, true},
		{`C:\Program Files\Surface\app.exe`, true},
		{"usbhub3.inf", false},
		{`\SystemRoot\System32\drivers\acpi.sys`, false},
		{"", false},

		// Allow-listed, even though they match the heuristic.
		{`ACPI\QCOM2465`, false},
		{`ACPI\qcom24bf`, false},
		{`\SystemRoot\System32\drivers\qcap.sys`, false},
		{`C:\Windows\qcursext.dll`, false},
		{`oem4.inf;ACPI\QCOMFFE5`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsOrphan(tt.in))
		})
	}
}

func TestOrphanMatchReturnsFragment(t *testing.T) {
	s := New(nil)
	m, ok := s.OrphanMatch(`Driver=oem7.inf,Section`)
	require.True(t, ok)
	assert.Equal(t, "oem7.inf", m)
}

func TestWithOrphanRules(t *testing.T) {
	s := New(nil).WithOrphanRules(regexp.MustCompile(`(?i)contoso`), regexp.MustCompile(`(?i)keep`))

	assert.True(t, s.IsOrphan("Contoso.inf"))
	assert.False(t, s.IsOrphan("contoso-keep"))
	assert.False(t, s.IsOrphan("oem1.inf"))
}
