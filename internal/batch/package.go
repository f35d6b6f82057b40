package batch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"invoicekit/internal/models"
)

// packageArchive writes one zip with one entry per rendered invoice, named
// by its invoice number, in source order. Zero records produce a valid
// empty archive.
func packageArchive(records []*models.InvoiceRecord, docs [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, rec := range records {
		entry, err := zw.Create(entryName(rec.InvoiceNumber))
		if err != nil {
			return nil, fmt.Errorf("creating archive entry for %s: %w", rec.InvoiceNumber, err)
		}
		if _, err := entry.Write(docs[i]); err != nil {
			return nil, fmt.Errorf("writing archive entry for %s: %w", rec.InvoiceNumber, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// entryName makes an invoice number safe as an archive filename.
func entryName(invoiceNumber string) string {
	name := strings.ReplaceAll(invoiceNumber, "/", "-")
	name = strings.TrimPrefix(name, "#")
	return name + ".pdf"
}
