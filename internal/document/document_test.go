package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	got := Format([]string{"Deep  reading\nof papers", "", "Results"})
	assert.Equal(t, "## Page 1\n\nDeep reading of papers\n\n## Page 2\n\n\n\n## Page 3\n\nResults\n\n", got)
	assert.Equal(t, "", Format(nil))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte("PK\x03\x04")))
	assert.False(t, IsPDF(nil))
}

func TestExtractText_RejectsNonPDF(t *testing.T) {
	data := []byte("hello, this is plain text")
	_, err := ExtractText(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = ExtractText(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	data := []byte("%PDF-1.4\nnot really a pdf")
	_, err := ExtractText(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotPDF)
}

func TestExtractFile(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))
	_, err = ExtractFile(path)
	assert.ErrorIs(t, err, ErrNotPDF)
}
