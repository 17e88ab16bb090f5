// Package docx extracts text from Word (.docx) documents, including text
// inside tables.
package docx
