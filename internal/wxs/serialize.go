package wxs

import (
	"encoding/xml"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"git.home.luguber.info/inful/wixpack/internal/errors"
)

// Serialize renders the document to its textual form.
//
// Output is byte-identical for identical documents: element and attribute
// order is fixed by the struct definitions and indentation is constant.
// Every path-derived string is validated against the manifest's character
// repertoire before anything is rendered, so a failing document produces no
// output at all.
func Serialize(doc *Document) ([]byte, error) {
	if err := validateEncoding(doc); err != nil {
		return nil, err
	}

	body, err := xml.MarshalIndent(doc.Wix, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "marshal manifest")
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// validateEncoding rejects path-derived strings the MSI file table cannot
// represent: invalid UTF-8 and characters outside Windows-1252.
func validateEncoding(doc *Document) error {
	encoder := charmap.Windows1252.NewEncoder()
	for _, ps := range doc.pathStrings {
		if !utf8.ValidString(ps.value) {
			return errors.EncodingError(ps.relPath)
		}
		if _, err := encoder.String(ps.value); err != nil {
			return errors.EncodingError(ps.relPath)
		}
	}
	return nil
}
