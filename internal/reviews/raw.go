package reviews

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawRecord is a persisted record kept exactly as it was read, unknown
// fields and field order included.
type rawRecord struct {
	keys   []string
	values []json.RawMessage
}

func (r *rawRecord) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token != json.Delim('{') {
		return fmt.Errorf("expected a record object, got %v", token)
	}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("expected a field name, got %v", token)
		}
		var value json.RawMessage
		err = decoder.Decode(&value)
		if err != nil {
			return err
		}
		r.keys = append(r.keys, key)
		r.values = append(r.values, value)
	}
	return nil
}

func (r rawRecord) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buffer.WriteByte(',')
		}
		encodedKey, err := marshalString(key)
		if err != nil {
			return nil, err
		}
		buffer.Write(encodedKey)
		buffer.WriteByte(':')
		buffer.Write(r.values[i])
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func (r rawRecord) str(key string) (string, bool) {
	for i, k := range r.keys {
		if k != key {
			continue
		}
		var out string
		if json.Unmarshal(r.values[i], &out) != nil {
			return "", false
		}
		return out, true
	}
	return "", false
}

func (r *rawRecord) set(key string, value json.RawMessage) {
	for i, k := range r.keys {
		if k == key {
			r.values[i] = value
			return
		}
	}
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

func marshalString(s string) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(s)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// ReconcileJSON is Reconcile over a persisted record file: only the title of
// records with a matching username changes, every other field (missing ones
// included) is written back as it was read. It returns the re-encoded file
// and how many records it holds.
func ReconcileJSON(data []byte, titles map[string]string) ([]byte, int, error) {
	var records []rawRecord
	err := json.Unmarshal(data, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}
	for i := range records {
		username, ok := records[i].str("username")
		if !ok {
			continue
		}
		title, ok := titles[username]
		if !ok {
			continue
		}
		encoded, err := marshalString(title)
		if err != nil {
			return nil, 0, err
		}
		records[i].set("title", encoded)
	}
	if records == nil {
		records = []rawRecord{}
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(records)
	if err != nil {
		return nil, 0, err
	}
	return buffer.Bytes(), len(records), nil
}
