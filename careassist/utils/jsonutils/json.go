package jsonutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteIndented encodes v to w with 2-space indentation, without escaping HTML.
func WriteIndented(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
