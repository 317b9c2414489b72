package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineType_InternsByName(t *testing.T) {
	r := New(nil)

	first, err := r.DefineType("pdf")
	require.NoError(t, err)

	second, err := r.DefineType("pdf")
	require.NoError(t, err)

	assert.Same(t, first, second, "redeclaring a type must return the same identity")
	assert.Len(t, r.Types(), 1)
}

func TestDefineType_EmptyName(t *testing.T) {
	r := New(nil)

	_, err := r.DefineType("")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestInferType(t *testing.T) {
	r := New(nil)
	pdf, err := r.DefineType("pdf")
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    *FileType
		wantErr bool
	}{
		{name: "declared extension", path: "doc.pdf", want: pdf},
		{name: "nested path", path: "/tmp/reports/q3.pdf", want: pdf},
		{name: "undeclared extension", path: "doc.txt", wantErr: true},
		{name: "no extension", path: "README", wantErr: true},
		{name: "trailing dot", path: "doc.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.InferType(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownType)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestDefineConversion_Validation(t *testing.T) {
	r := New(nil)
	_, err := r.DefineType("pdf")
	require.NoError(t, err)

	_, err = r.DefineConversion("pdf", "ps", []string{"/usr/bin/pdf2ps"})
	assert.ErrorIs(t, err, ErrUnknownType, "undeclared target type")

	_, err = r.DefineConversion("ps", "pdf", []string{"/usr/bin/ps2pdf"})
	assert.ErrorIs(t, err, ErrUnknownType, "undeclared source type")

	_, err = r.DefineType("ps")
	require.NoError(t, err)
	_, err = r.DefineConversion("pdf", "ps", nil)
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestDefineConversion_LastWinsKeepsPosition(t *testing.T) {
	r := New(nil)
	mustType(t, r, "pdf", "ps", "txt")

	_, err := r.DefineConversion("pdf", "ps", []string{"/usr/bin/pdf2ps"})
	require.NoError(t, err)
	_, err = r.DefineConversion("pdf", "txt", []string{"/usr/bin/pdftotext"})
	require.NoError(t, err)

	// Redeclare the first edge with a different command.
	_, err = r.DefineConversion("pdf", "ps", []string{"/opt/bin/better-pdf2ps", "-q"})
	require.NoError(t, err)

	pdf, _ := r.Type("pdf")
	ps, _ := r.Type("ps")
	path := r.FindPath(pdf, ps)
	require.Len(t, path, 1)
	assert.Equal(t, []string{"/opt/bin/better-pdf2ps", "-q"}, path[0].Argv)

	assert.Equal(t, "better-pdf2ps", path[0].Program())

	// The replaced edge must still be first in declaration order: of the two
	// equally short routes pdf→ps→out and pdf→txt→out, the one through the
	// redeclared pdf→ps edge keeps priority.
	mustType(t, r, "out")
	mustConv(t, r, "ps", "out", "ps2out")
	mustConv(t, r, "txt", "out", "txt2out")
	out, _ := r.Type("out")
	path = r.FindPath(pdf, out)
	require.Len(t, path, 2)
	assert.Equal(t, "better-pdf2ps", path[0].Program())
	assert.Equal(t, "ps2out", path[1].Program())
}

func TestFindPath_EmptyIffSameType(t *testing.T) {
	r := New(nil)
	mustType(t, r, "pdf", "ps")

	pdf, _ := r.Type("pdf")
	ps, _ := r.Type("ps")

	path := r.FindPath(pdf, pdf)
	require.NotNil(t, path)
	assert.Empty(t, path)

	assert.Nil(t, r.FindPath(pdf, ps), "no edge declared yet")
}

func TestFindPath_ShortestWithDeterministicTieBreak(t *testing.T) {
	r := New(nil)
	mustType(t, r, "a", "b", "c", "d")

	// Two 2-stage routes a→d: via b (declared first) and via c.
	mustConv(t, r, "a", "b", "a2b")
	mustConv(t, r, "a", "c", "a2c")
	mustConv(t, r, "b", "d", "b2d")
	mustConv(t, r, "c", "d", "c2d")

	a, _ := r.Type("a")
	d, _ := r.Type("d")

	path := r.FindPath(a, d)
	require.Len(t, path, 2)
	assert.Equal(t, "a2b", path[0].Argv[0], "earlier-declared edge wins the tie")
	assert.Equal(t, "b2d", path[1].Argv[0])

	// A direct edge beats any multi-stage route regardless of declaration order.
	mustConv(t, r, "a", "d", "a2d")
	path = r.FindPath(a, d)
	require.Len(t, path, 1)
	assert.Equal(t, "a2d", path[0].Argv[0])
}

func TestFindPath_TwoStageOrder(t *testing.T) {
	r := New(nil)
	mustType(t, r, "pdf", "ps", "txt")
	mustConv(t, r, "pdf", "ps", "pdf2ps")
	mustConv(t, r, "ps", "txt", "ps2txt")

	pdf, _ := r.Type("pdf")
	txt, _ := r.Type("txt")

	path := r.FindPath(pdf, txt)
	require.Len(t, path, 2)
	assert.Equal(t, "pdf2ps", path[0].Argv[0])
	assert.Equal(t, "ps2txt", path[1].Argv[0])
}

func TestReachable(t *testing.T) {
	r := New(nil)
	mustType(t, r, "pdf", "ps", "txt")
	mustConv(t, r, "pdf", "ps", "pdf2ps")

	pdf, _ := r.Type("pdf")
	ps, _ := r.Type("ps")
	txt, _ := r.Type("txt")

	assert.True(t, r.Reachable(pdf, pdf))
	assert.True(t, r.Reachable(pdf, ps))
	assert.False(t, r.Reachable(ps, pdf), "edges are directed")
	assert.False(t, r.Reachable(pdf, txt))
}

func mustType(t *testing.T, r *Registry, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := r.DefineType(n)
		require.NoError(t, err)
	}
}

func mustConv(t *testing.T, r *Registry, from, to, prog string) {
	t.Helper()
	_, err := r.DefineConversion(from, to, []string{prog})
	require.NoError(t, err)
}
