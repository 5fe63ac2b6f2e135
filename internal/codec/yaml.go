package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"messprotokoll/internal/domain"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlProtocol mirrors domain.Protocol with YAML field names.
type yamlProtocol struct {
	ID               string     `yaml:"id,omitempty"`
	Customer         string     `yaml:"customer,omitempty"`
	Order            string     `yaml:"order,omitempty"`
	Position         string     `yaml:"position,omitempty"`
	Date             string     `yaml:"date,omitempty"`
	DrawingNumber    string     `yaml:"drawing_number,omitempty"`
	SurfaceTreatment string     `yaml:"surface_treatment,omitempty"`
	Remarks          string     `yaml:"remarks,omitempty"`
	Slots            []yamlSlot `yaml:"slots"`
}

type yamlSlot struct {
	Nominal        string `yaml:"nominal,omitempty"`
	ISOFit         string `yaml:"iso_fit,omitempty"`
	Instrument     string `yaml:"instrument,omitempty"`
	UpperDeviation string `yaml:"upper_deviation,omitempty"`
	LowerDeviation string `yaml:"lower_deviation,omitempty"`
	Target         string `yaml:"target,omitempty"`
}

// Parse imports a protocol from YAML. Extra slots beyond the form size are
// rejected; missing trailing slots stay empty.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Protocol, error) {
	var yp yamlProtocol
	if err := yaml.NewDecoder(r).Decode(&yp); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(yp.Slots) > domain.TotalMeasurements {
		return nil, fmt.Errorf("too many slots: %d (form has %d)", len(yp.Slots), domain.TotalMeasurements)
	}

	p := domain.NewProtocol(yp.ID)
	p.Customer = yp.Customer
	p.Order = yp.Order
	p.Position = yp.Position
	if yp.Date != "" {
		p.Date = yp.Date
	}
	p.DrawingNumber = yp.DrawingNumber
	p.SurfaceTreatment = yp.SurfaceTreatment
	p.Remarks = yp.Remarks

	for i, ys := range yp.Slots {
		slot := p.Slot(i)
		slot.Nominal = ys.Nominal
		slot.ISOFit = ys.ISOFit
		slot.Instrument = ys.Instrument
		slot.UpperDeviation = ys.UpperDeviation
		slot.LowerDeviation = ys.LowerDeviation
		slot.RecomputeTarget()
	}
	return p, nil
}

// Export exports a protocol to YAML
func (c *YAMLCodec) Export(p *domain.Protocol, w io.Writer) error {
	yp := yamlProtocol{
		ID:               p.ID,
		Customer:         p.Customer,
		Order:            p.Order,
		Position:         p.Position,
		Date:             p.Date,
		DrawingNumber:    p.DrawingNumber,
		SurfaceTreatment: p.SurfaceTreatment,
		Remarks:          p.Remarks,
	}
	for _, slot := range p.Slots {
		yp.Slots = append(yp.Slots, yamlSlot{
			Nominal:        slot.Nominal,
			ISOFit:         slot.ISOFit,
			Instrument:     slot.Instrument,
			UpperDeviation: slot.UpperDeviation,
			LowerDeviation: slot.LowerDeviation,
			Target:         slot.Target,
		})
	}

	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	if err := encoder.Encode(yp); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
