package export

import (
	"io"

	"careassist/careassist/utils/jsonutils"
	"careassist/careassist/utils/types"
)

// JSONExporter writes the snapshot as 2-space indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(snap *types.SessionExport, w io.Writer) error {
	return jsonutils.WriteIndented(w, snap)
}

func (e *JSONExporter) Extension() string {
	return "json"
}

func (e *JSONExporter) ContentType() string {
	return "application/json"
}
