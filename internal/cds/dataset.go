package cds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Dataset is the persisted per-school document consumed by the dashboard.
// Years are kept as raw JSON so that merging a new year never re-encodes,
// and therefore never changes, the years already on disk.
type Dataset struct {
	Name  string                     `json:"name"`
	Slug  string                     `json:"slug"`
	Color string                     `json:"color,omitempty"`
	Years map[string]json.RawMessage `json:"years"`
	// Extra holds top-level keys this tool does not own, such as ones
	// added by hand or by an older tool. They are written back after the
	// known keys in sorted order.
	Extra map[string]json.RawMessage `json:"-"`
}

var datasetKeys = map[string]bool{"name": true, "slug": true, "color": true, "years": true}

// NewDataset returns an empty dataset for a school.
func NewDataset(name, slug, color string) Dataset {
	return Dataset{Name: name, Slug: slug, Color: color, Years: map[string]json.RawMessage{}}
}

// Put stores rec under its year, replacing only that key.
func (d *Dataset) Put(rec YearRecord) error {
	if !ValidYear(rec.Year) {
		return fmt.Errorf("cds: invalid year %q", rec.Year)
	}
	b, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	if d.Years == nil {
		d.Years = map[string]json.RawMessage{}
	}
	d.Years[rec.Year] = b
	return nil
}

// YearKeys returns the year keys in ascending order.
func (d Dataset) YearKeys() []string {
	keys := make([]string, 0, len(d.Years))
	for k := range d.Years {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record decodes the record stored for year.
func (d Dataset) Record(year string) (YearRecord, bool, error) {
	raw, ok := d.Years[year]
	if !ok {
		return YearRecord{}, false, nil
	}
	var rec YearRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return YearRecord{}, true, fmt.Errorf("cds: decode %s: %w", year, err)
	}
	return rec, true, nil
}

// EncodeRecord renders a record deterministically: fixed field order,
// sorted map keys, shortest float formatting.
func EncodeRecord(rec YearRecord) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("cds: encode %s: %w", rec.Year, err)
	}
	return b, nil
}

// Encode renders the dataset file contents with two-space indentation and a
// trailing newline.
func Encode(d Dataset) ([]byte, error) {
	if d.Years == nil {
		d.Years = map[string]json.RawMessage{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("cds: encode dataset %s: %w", d.Slug, err)
	}
	if len(d.Extra) > 0 {
		keys := make([]string, 0, len(d.Extra))
		for k := range d.Extra {
			if !datasetKeys[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		b = b[:len(b)-1]
		for _, k := range keys {
			kb, _ := json.Marshal(k)
			var v bytes.Buffer
			if err := json.Compact(&v, d.Extra[k]); err != nil {
				return nil, fmt.Errorf("cds: encode dataset %s: key %s: %w", d.Slug, k, err)
			}
			b = append(append(append(append(b, ','), kb...), ':'), v.Bytes()...)
		}
		b = append(b, '}')
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return nil, fmt.Errorf("cds: encode dataset %s: %w", d.Slug, err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Decode parses a dataset file. Unknown top-level keys are kept in Extra so
// that rewriting the file does not lose them.
func Decode(b []byte) (Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&d); err != nil {
		return Dataset{}, fmt.Errorf("cds: decode dataset: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return Dataset{}, fmt.Errorf("cds: decode dataset: %w", err)
	}
	for k, v := range all {
		if datasetKeys[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = map[string]json.RawMessage{}
		}
		d.Extra[k] = v
	}
	if d.Years == nil {
		d.Years = map[string]json.RawMessage{}
	}
	return d, nil
}
