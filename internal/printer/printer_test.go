package printer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spoold/internal/registry"
)

func newTypes(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	r := registry.New(nil)
	for _, n := range names {
		_, err := r.DefineType(n)
		require.NoError(t, err)
	}
	return r
}

func TestAdd(t *testing.T) {
	types := newTypes(t, "pdf")
	pdf, _ := types.Type("pdf")

	reg := NewRegistry(nil, 2)

	p, err := reg.Add("alice", pdf)
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, p.Status, "new printers start disabled")

	_, err = reg.Add("alice", pdf)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = reg.Add("bob", pdf)
	require.NoError(t, err)

	_, err = reg.Add("carol", pdf)
	assert.ErrorIs(t, err, ErrFull)
}

func TestEnable(t *testing.T) {
	types := newTypes(t, "pdf")
	pdf, _ := types.Type("pdf")

	reg := NewRegistry(nil, 4)
	_, err := reg.Add("alice", pdf)
	require.NoError(t, err)

	p, changed, err := reg.Enable("alice")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusIdle, p.Status)

	// Enabling again must not report a change, so no duplicate event fires.
	_, changed, err = reg.Enable("alice")
	require.NoError(t, err)
	assert.False(t, changed)

	// A busy printer is already enabled.
	p.Status = StatusBusy
	_, changed, err = reg.Enable("alice")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusBusy, p.Status)

	_, _, err = reg.Enable("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectCompatible(t *testing.T) {
	types := newTypes(t, "pdf", "ps", "txt")
	pdf, _ := types.Type("pdf")
	ps, _ := types.Type("ps")
	txt, _ := types.Type("txt")
	_, err := types.DefineConversion("pdf", "ps", []string{"pdf2ps"})
	require.NoError(t, err)

	reg := NewRegistry(nil, 8)
	mustAdd := func(name string, typ *registry.FileType, st Status) *Printer {
		p, err := reg.Add(name, typ)
		require.NoError(t, err)
		p.Status = st
		return p
	}

	convertible := mustAdd("conv", ps, StatusIdle)   // reachable via pdf→ps
	direct := mustAdd("direct", pdf, StatusIdle)     // exact type, declared later
	mustAdd("offline", pdf, StatusDisabled)          // never eligible
	mustAdd("unrelated", txt, StatusIdle)            // not reachable from pdf

	got := reg.SelectCompatible(pdf, types)
	assert.Same(t, direct, got, "direct match beats conversion even when declared later")

	direct.Status = StatusBusy
	got = reg.SelectCompatible(pdf, types)
	assert.Same(t, convertible, got, "falls back to a conversion-reachable printer")

	convertible.Status = StatusBusy
	assert.Nil(t, reg.SelectCompatible(pdf, types))
}

func TestSelectCompatible_InsertionOrderTieBreak(t *testing.T) {
	types := newTypes(t, "pdf")
	pdf, _ := types.Type("pdf")

	reg := NewRegistry(nil, 4)
	first, err := reg.Add("first", pdf)
	require.NoError(t, err)
	second, err := reg.Add("second", pdf)
	require.NoError(t, err)
	first.Status = StatusIdle
	second.Status = StatusIdle

	assert.Same(t, first, reg.SelectCompatible(pdf, types))
}

func TestSpoolDirConnector(t *testing.T) {
	types := newTypes(t, "pdf")
	pdf, _ := types.Type("pdf")

	dir := filepath.Join(t.TempDir(), "spool")
	conn := NewSpoolDirConnector(nil, dir)

	f, err := conn.Connect("alice", pdf)
	require.NoError(t, err)
	_, err = f.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// A second connection appends rather than truncating.
	f, err = conn.Connect("alice", pdf)
	require.NoError(t, err)
	_, err = f.WriteString("again\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "alice.out"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nagain\n", string(data))
}
