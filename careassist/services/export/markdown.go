package export

import (
	"bufio"
	"io"
	"strings"
	"time"

	"careassist/careassist/utils/types"
)

// MarkdownExporter renders a readable transcript for printing or sharing
// with a care team.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(snap *types.SessionExport, w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("# " + snap.Title + "\n\n")
	bw.WriteString("- Created: " + snap.CreatedAt.Format(time.RFC1123) + "\n")
	bw.WriteString("- Exported: " + snap.ExportedAt.Format(time.RFC1123) + "\n\n")

	for _, m := range snap.Messages {
		speaker := "You"
		if m.Role == types.RoleAssistant {
			speaker = "Care Assistant"
		}
		bw.WriteString("## " + speaker + " · " + m.Timestamp.Format("Jan 2, 15:04") + "\n\n")
		bw.WriteString(strings.TrimRight(m.Content, "\n") + "\n\n")
	}
	if snap.IsEmpty() {
		bw.WriteString("_No messages yet._\n")
	}
	return bw.Flush()
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}

func (e *MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}
