package dxf

// Block is a named group of entities with a base point, referenced by INSERT
// entities and by dimensions for their rendered geometry.
type Block struct {
	Name     string
	Entities []Entity
}

// Document is a parsed drawing: the modelspace entities plus the block table.
type Document struct {
	Entities []Entity
	Blocks   map[string]*Block

	// Warnings collects non-fatal oddities found during lenient parsing.
	Warnings []string
}

// Block looks up a block definition by name.
func (d *Document) Block(name string) *Block {
	if name == "" {
		return nil
	}
	return d.Blocks[name]
}

// Dimensions returns all dimension entities of the modelspace.
func (d *Document) Dimensions() []Dimension {
	var dims []Dimension
	for _, e := range d.Entities {
		if dim, ok := e.(Dimension); ok {
			dims = append(dims, dim)
		}
	}
	return dims
}
