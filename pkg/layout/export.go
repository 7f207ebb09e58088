package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// MarshalResult converts a layout result to indented JSON.
// Position keys are sorted, so equal results encode to equal bytes.
func MarshalResult(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteResult(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteResult writes a layout result as JSON to w.
func WriteResult(r *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteResultFile writes a layout result to a JSON file.
func WriteResultFile(r *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteResult(r, f)
}

// ReadResult decodes a layout result from r.
func ReadResult(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if res.Positions == nil {
		return nil, fmt.Errorf("decode: layout has no positions")
	}
	return &res, nil
}

// UnmarshalResult decodes a layout result from JSON bytes.
func UnmarshalResult(data []byte) (*Result, error) {
	return ReadResult(bytes.NewReader(data))
}

// ReadResultFile reads a layout result from a JSON file.
func ReadResultFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadResult(f)
}
