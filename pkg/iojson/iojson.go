// Package iojson writes the JSON result envelopes emitted by the CLI.
// Every command responds with a single envelope on stdout so scripted
// callers get a uniform success/data/error shape.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Result is the envelope returned by every command.
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Ok wraps data in a successful envelope.
func Ok(data any) Result {
	return Result{OK: true, Data: data}
}

// Err wraps an error message in a failed envelope.
func Err(message string) Result {
	return Result{OK: false, Error: message}
}

func fallbackError(msg string, jsonErr error) string {
	// Use json.Marshal to properly escape strings.
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"ok":false,"error":%s,"json_error":%s}`, msgBytes, errBytes)
}

// WriteWith marshals the envelope to w, falling back to a hand-built error
// blob on ew if marshaling itself fails (which indicates a bug).
func WriteWith(w io.Writer, ew io.Writer, res Result) error {
	bits, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		errStr := fallbackError("error marshaling in iojson.Write", err)
		_, err = fmt.Fprintln(ew, errStr)
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write calls WriteWith with [os.Stdout] and [os.Stderr].
func Write(res Result) error {
	return WriteWith(os.Stdout, os.Stderr, res)
}
