package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"messprotokoll/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a protocol from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Protocol, error) {
	var p domain.Protocol
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &p, nil
}

// Export exports a protocol to JSON
func (c *JSONCodec) Export(p *domain.Protocol, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
