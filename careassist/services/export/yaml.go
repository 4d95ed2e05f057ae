package export

import (
	"io"

	"careassist/careassist/utils/types"

	"gopkg.in/yaml.v3"
)

type YAMLExporter struct{}

func (e *YAMLExporter) Export(snap *types.SessionExport, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return err
	}
	return enc.Close()
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}

func (e *YAMLExporter) ContentType() string {
	return "application/yaml"
}
