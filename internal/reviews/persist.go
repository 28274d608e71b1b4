package reviews

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Marshal renders records the way they are persisted: two space
// indentation, non-ASCII text and HTML characters left as is.
func Marshal(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(records)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// WriteFile replaces the contents of path with records. The file is written
// next to path first and renamed over it, readers never see a partial file.
func WriteFile(path string, records []Record) error {
	buff, err := Marshal(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write reviews: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(buff)
	if err == nil {
		err = tmp.Chmod(0644)
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		return fmt.Errorf("write reviews: %w", err)
	}
	return nil
}

func ReadFile(path string) ([]Record, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	err = json.Unmarshal(buff, &records)
	if err != nil {
		return nil, fmt.Errorf("decode reviews %s: %w", path, err)
	}
	return records, nil
}

func ReadTitleSource(path string) (TitleSource, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return TitleSource{}, err
	}
	var source TitleSource
	err = json.Unmarshal(buff, &source)
	if err != nil {
		return TitleSource{}, fmt.Errorf("decode title source %s: %w", path, err)
	}
	return source, nil
}
