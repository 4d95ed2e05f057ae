// careassist/services/export/exporter.go
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"careassist/careassist/utils/types"
)

// Exporter writes one session snapshot in a download format.
type Exporter interface {
	Export(snap *types.SessionExport, w io.Writer) error
	Extension() string
	ContentType() string
}

// NewExporter returns the exporter for format; "" means json.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", format)
	}
}

// Filename builds the download name: the title with every character outside
// [A-Za-z0-9] replaced by "_", then the export time in unix millis.
func Filename(title, ext string, at time.Time) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r > 0xFFFF:
			// counted as two UTF-16 units, like the browser download did
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return fmt.Sprintf("%s_%d.%s", b.String(), at.UnixMilli(), ext)
}
