package codec

import (
	"io"

	"messprotokoll/internal/domain"
)

// Importer interface for importing protocols from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Protocol, error)
	Format() string
}

// Exporter interface for exporting protocols to various formats
type Exporter interface {
	Export(p *domain.Protocol, w io.Writer) error
	Format() string
}
