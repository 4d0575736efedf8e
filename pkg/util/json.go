package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// PrintPrettyJSON writes v to stdout as indented JSON.
func PrintPrettyJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRawJSON re-indents a raw JSON document and prints it, so server-sent
// documents keep their exact fields instead of being filtered through a Go
// struct.
func PrintRawJSON(raw string) error {
	if raw == "" {
		fmt.Println("{}")
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		// Settings documents may use a relaxed JSON dialect that the standard
		// parser rejects; print them untouched.
		fmt.Println(raw)
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
