package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/krew-solutions/bloc-go/bloc/pipeline"
)

const maxLineSize = 16 << 20

// recordReader decodes one JSON record per line. Lines that fail to decode
// are skipped and reported together by Err.
type recordReader struct {
	scanner *bufio.Scanner
	errs    *multierror.Error
}

func newRecordReader(r io.Reader) *recordReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &recordReader{scanner: scanner}
}

// Records reads lazily; it can be ranged over once.
func (r *recordReader) Records() iter.Seq[pipeline.Record] {
	return func(yield func(pipeline.Record) bool) {
		line := 0
		for r.scanner.Scan() {
			line++
			raw := bytes.TrimSpace(r.scanner.Bytes())
			if len(raw) == 0 {
				continue
			}
			var record any
			if err := json.Unmarshal(raw, &record); err != nil {
				r.errs = multierror.Append(r.errs, errors.Wrapf(err, "line %d", line))
				continue
			}
			if !yield(record) {
				return
			}
		}
		if err := r.scanner.Err(); err != nil {
			r.errs = multierror.Append(r.errs, errors.Wrap(err, "read input"))
		}
	}
}

func (r *recordReader) Err() error {
	return r.errs.ErrorOrNil()
}

// recordWriter writes one JSON record per line.
type recordWriter struct {
	enc   *json.Encoder
	count int
}

func newRecordWriter(w io.Writer) *recordWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &recordWriter{enc: enc}
}

func (w *recordWriter) WriteAll(records iter.Seq[pipeline.Record]) error {
	for record := range records {
		if err := w.enc.Encode(record); err != nil {
			return errors.Wrapf(err, "write record %d", w.count+1)
		}
		w.count++
	}
	return nil
}

// parseDocument decodes a YAML (or JSON) document argument. It returns
// either a pipeline.Document, a []pipeline.Document or nil for an empty
// argument.
func parseDocument(src string) (any, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	switch doc := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return pipeline.Document(doc), nil
	case []any:
		stages := make([]pipeline.Document, len(doc))
		for i, item := range doc {
			stage, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Errorf("parse document: stage %d must be a mapping, got %T", i, item)
			}
			stages[i] = stage
		}
		return stages, nil
	}
	return nil, errors.Errorf("parse document: must be a mapping, got %T", raw)
}
