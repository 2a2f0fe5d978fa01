// Package document extracts page-demarcated text from PDF files.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned for input that does not start with the PDF magic bytes.
var ErrNotPDF = errors.New("only PDF files are supported")

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether header starts with the PDF signature.
func IsPDF(header []byte) bool {
	return bytes.HasPrefix(header, pdfMagic)
}

// ExtractText returns the text of every page, each under a "## Page N" header.
func ExtractText(r io.ReaderAt, size int64) (string, error) {
	header := make([]byte, len(pdfMagic))
	if _, err := r.ReadAt(header, 0); err != nil || !IsPDF(header) {
		return "", ErrNotPDF
	}

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return Format(pages), nil
}

// ExtractFile opens path and extracts its text.
func ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	return ExtractText(f, info.Size())
}

// Format renders page texts as markdown. Whitespace within a page is
// collapsed to single spaces.
func Format(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		fmt.Fprintf(&b, "## Page %d\n\n%s\n\n", i+1, strings.Join(strings.Fields(text), " "))
	}
	return b.String()
}
