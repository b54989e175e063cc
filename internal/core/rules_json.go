package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the rule set as a JSON object keyed by category name,
// preserving rule order.
func (rs RuleSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		kws := r.Keywords
		if kws == nil {
			kws = []string{}
		}
		val, err := json.Marshal(kws)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of category name to keyword array,
// keeping the document's key order. A repeated key replaces the earlier
// keywords but keeps the first position.
func (rs *RuleSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("categories document must be a JSON object, got %v", tok)
	}

	out := RuleSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var kws []string
		if err := dec.Decode(&kws); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		if kws == nil {
			kws = []string{}
		}
		if idx := out.Index(name); idx >= 0 {
			out[idx].Keywords = kws
			continue
		}
		out = append(out, Rule{Name: name, Keywords: kws})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*rs = out
	return nil
}
