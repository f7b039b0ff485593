package manager

import "bytes"

// estimatePageCount counts page objects in a PDF. Each page carries
// "/Type /Page" and the page tree root "/Type /Pages", which also matches.
func estimatePageCount(pdf []byte) int {
	n := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(n, 1)
}

// looksLikePDF reports whether b starts with the PDF header.
func looksLikePDF(b []byte) bool { return bytes.HasPrefix(b, []byte("%PDF-")) }
