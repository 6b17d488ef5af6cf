package interchange

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

// ExportJSON writes reg as {"students": [...], "instructors": [...], "courses": [...]}.
func ExportJSON(w io.Writer, reg *school.Registry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(reg.ToDocument()); err != nil {
		return errors.Wrap(err, "encoding json")
	}
	return nil
}

// ImportJSON reads a document written by ExportJSON.
// Malformed JSON is a *core.ValidationError.
func ImportJSON(r io.Reader) (*school.Registry, error) {
	var doc school.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid JSON document"))
	}
	return school.RegistryFromDocument(doc)
}
