package fileutil

import (
	"encoding/json"
	"io"
	"os"
)

// WriteJSON encodes value as indented JSON followed by a newline.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func PrintJSON(value any) error {
	return WriteJSON(os.Stdout, value)
}
