package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"sentencing-discrepancy/models"
	"sentencing-discrepancy/validation"

	log "github.com/sirupsen/logrus"
)

const maxLineBytes = 1 << 20

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// readRecords validates every record in r. Records failing validation are
// logged and skipped.
func readRecords(r io.Reader, validator *validation.Validator) ([]models.CaseRecord, error) {
	br := bufio.NewReader(r)
	raws, err := splitRecords(br)
	if err != nil {
		return nil, err
	}

	records := make([]models.CaseRecord, 0, len(raws))
	for i, raw := range raws {
		record, err := validator.Validate(raw)
		if err != nil {
			var schemaErr *validation.SchemaError
			if errors.As(err, &schemaErr) {
				log.Warnf("skipping record %d: %v", i+1, schemaErr)
				continue
			}
			return nil, err
		}
		records = append(records, *record)
	}

	log.Infof("read %d valid of %d records", len(records), len(raws))
	return records, nil
}

// splitRecords accepts a JSON array or one JSON object per line
func splitRecords(br *bufio.Reader) ([][]byte, error) {
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var raws []json.RawMessage
		if err := json.NewDecoder(br).Decode(&raws); err != nil {
			return nil, fmt.Errorf("failed to decode record array: %w", err)
		}
		out := make([][]byte, len(raws))
		for i := range raws {
			out[i] = raws[i]
		}
		return out, nil
	}

	var out [][]byte
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out = append(out, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func writeJSONLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}
