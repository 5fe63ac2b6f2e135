// Package dxf reads the subset of ASCII DXF needed for dimension picking:
// LINE, TEXT, MTEXT, INSERT and DIMENSION entities from the ENTITIES
// section, plus block definitions (including the anonymous *D render blocks
// that dimensions reference for their drawn geometry).
//
// Parsing is deliberately lenient, in the spirit of a recovery reader:
// unknown sections, entities and group codes are skipped, and malformed
// numeric fields are recorded as warnings instead of failing the load. A
// drawing that cannot be read at all still returns an error.
package dxf

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// ParseFile reads and parses a DXF drawing from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drawing: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a DXF drawing from r.
func Parse(r io.Reader) (*Document, error) {
	p := &parser{
		tags: newTagReader(r),
		doc:  &Document{Blocks: make(map[string]*Block)},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	if p.tags.skipped > 0 {
		p.warnf("skipped %d malformed tag pairs", p.tags.skipped)
	}
	if len(p.doc.Entities) == 0 && len(p.doc.Blocks) == 0 {
		return nil, fmt.Errorf("no drawing content found")
	}
	return p.doc, nil
}

type parser struct {
	tags *tagReader
	doc  *Document
}

func (p *parser) warnf(format string, args ...any) {
	p.doc.Warnings = append(p.doc.Warnings, fmt.Sprintf(format, args...))
}

func (p *parser) run() error {
	for {
		tag, err := p.tags.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read drawing: %w", err)
		}

		if tag.Code != 0 || !strings.EqualFold(tag.Value, "SECTION") {
			continue
		}

		name, err := p.tags.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if name.Code != 2 {
			p.tags.unread(name)
			continue
		}

		switch strings.ToUpper(name.Value) {
		case "BLOCKS":
			if err := p.parseBlocks(); err != nil {
				return err
			}
		case "ENTITIES":
			entities, err := p.parseEntities("ENDSEC")
			if err != nil {
				return err
			}
			p.doc.Entities = append(p.doc.Entities, entities...)
		default:
			if err := p.skipSection(); err != nil {
				return err
			}
		}
	}
}

func (p *parser) skipSection() error {
	for {
		tag, err := p.tags.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if tag.Code == 0 && strings.EqualFold(tag.Value, "ENDSEC") {
			return nil
		}
	}
}

func (p *parser) parseBlocks() error {
	for {
		tag, err := p.tags.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if tag.Code == 0 {
			switch strings.ToUpper(tag.Value) {
			case "ENDSEC":
				return nil
			case "BLOCK":
				if err := p.parseBlock(); err != nil {
					return err
				}
			}
		}
	}
}

func (p *parser) parseBlock() error {
	block := &Block{}

	// Block header tags run until the first entity or ENDBLK.
	for {
		tag, err := p.tags.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if tag.Code == 0 {
			p.tags.unread(tag)
			break
		}
		if tag.Code == 2 && block.Name == "" {
			block.Name = tag.Value
		}
	}

	entities, err := p.parseEntities("ENDBLK")
	if err != nil {
		return err
	}
	block.Entities = entities

	if block.Name != "" {
		p.doc.Blocks[block.Name] = block
	}
	return nil
}

// parseEntities reads entities until the terminator (ENDSEC or ENDBLK).
func (p *parser) parseEntities(terminator string) ([]Entity, error) {
	var entities []Entity
	for {
		tag, err := p.tags.next()
		if err == io.EOF {
			return entities, nil
		}
		if err != nil {
			return nil, err
		}
		if tag.Code != 0 {
			continue
		}
		if strings.EqualFold(tag.Value, terminator) {
			return entities, nil
		}

		entity, err := p.parseEntity(strings.ToUpper(tag.Value))
		if err != nil {
			return nil, err
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
}

// parseEntity consumes the tags of one entity. It returns nil for entity
// types the reader does not model.
func (p *parser) parseEntity(kind string) (Entity, error) {
	tags, err := p.collectEntityTags()
	if err != nil {
		return nil, err
	}

	switch kind {
	case "LINE":
		return p.buildLine(tags), nil
	case "TEXT":
		return p.buildText(tags), nil
	case "MTEXT":
		return p.buildMText(tags), nil
	case "INSERT":
		return p.buildInsert(tags), nil
	case "DIMENSION":
		return p.buildDimension(tags), nil
	}
	return nil, nil
}

// collectEntityTags reads tags up to, but not including, the next code 0.
func (p *parser) collectEntityTags() ([]Tag, error) {
	var tags []Tag
	for {
		tag, err := p.tags.next()
		if err == io.EOF {
			return tags, nil
		}
		if err != nil {
			return nil, err
		}
		if tag.Code == 0 {
			p.tags.unread(tag)
			return tags, nil
		}
		tags = append(tags, tag)
	}
}

func (p *parser) floatOf(tag Tag, what string) (float64, bool) {
	v, ok := tag.Float()
	if !ok {
		p.warnf("unreadable %s value %q (group %d)", what, tag.Value, tag.Code)
	}
	return v, ok
}

func (p *parser) buildLine(tags []Tag) Entity {
	var line Line
	for _, tag := range tags {
		switch tag.Code {
		case 10:
			line.From.X, _ = p.floatOf(tag, "line")
		case 20:
			line.From.Y, _ = p.floatOf(tag, "line")
		case 11:
			line.To.X, _ = p.floatOf(tag, "line")
		case 21:
			line.To.Y, _ = p.floatOf(tag, "line")
		}
	}
	return line
}

func (p *parser) buildText(tags []Tag) Entity {
	var text Text
	for _, tag := range tags {
		switch tag.Code {
		case 1:
			text.Value = tag.Value
		case 10:
			text.Insert.X, _ = p.floatOf(tag, "text")
		case 20:
			text.Insert.Y, _ = p.floatOf(tag, "text")
		}
	}
	return text
}

func (p *parser) buildMText(tags []Tag) Entity {
	var mtext MText
	var chunks []string
	for _, tag := range tags {
		switch tag.Code {
		case 3:
			// Continuation chunks precede the final group 1 text.
			chunks = append(chunks, tag.Value)
		case 1:
			chunks = append(chunks, tag.Value)
		case 10:
			mtext.Insert.X, _ = p.floatOf(tag, "mtext")
		case 20:
			mtext.Insert.Y, _ = p.floatOf(tag, "mtext")
		}
	}
	mtext.Value = stripMTextCodes(strings.Join(chunks, ""))
	return mtext
}

func (p *parser) buildInsert(tags []Tag) Entity {
	var insert Insert
	for _, tag := range tags {
		switch tag.Code {
		case 2:
			insert.BlockName = tag.Value
		case 10:
			insert.At.X, _ = p.floatOf(tag, "insert")
		case 20:
			insert.At.Y, _ = p.floatOf(tag, "insert")
		}
	}
	return insert
}

func (p *parser) buildDimension(tags []Tag) Entity {
	dim := Dimension{Measurement: math.NaN()}
	for _, tag := range tags {
		switch tag.Code {
		case 2:
			dim.BlockName = tag.Value
		case 1:
			dim.OverrideText = tag.Value
		case 42:
			if v, ok := p.floatOf(tag, "dimension measurement"); ok {
				dim.Measurement = v
			}
		case 10:
			dim.Defpoint.X, _ = p.floatOf(tag, "dimension")
			dim.HasDefpoint = true
		case 20:
			dim.Defpoint.Y, _ = p.floatOf(tag, "dimension")
			dim.HasDefpoint = true
		case 11:
			dim.TextMidpoint.X, _ = p.floatOf(tag, "dimension")
			dim.HasMidpoint = true
		case 21:
			dim.TextMidpoint.Y, _ = p.floatOf(tag, "dimension")
			dim.HasMidpoint = true
		case 13:
			dim.Defpoint2.X, _ = p.floatOf(tag, "dimension")
			dim.HasDefpoint2 = true
		case 23:
			dim.Defpoint2.Y, _ = p.floatOf(tag, "dimension")
			dim.HasDefpoint2 = true
		case 14:
			dim.Defpoint3.X, _ = p.floatOf(tag, "dimension")
			dim.HasDefpoint3 = true
		case 24:
			dim.Defpoint3.Y, _ = p.floatOf(tag, "dimension")
			dim.HasDefpoint3 = true
		}
	}
	return dim
}

// stripMTextCodes removes inline MTEXT formatting: paragraph breaks become
// newlines, grouping braces are dropped, and backslash control sequences
// (font, height, color, stacking) are removed.
func stripMTextCodes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{', '}':
			// grouping only
		case '\\':
			if i+1 >= len(s) {
				break
			}
			i++
			switch s[i] {
			case 'P', 'p':
				b.WriteByte('\n')
			case '\\', '{', '}':
				b.WriteByte(s[i])
			case 'S':
				// Stacked fraction \S<upper>^<lower>; — keep the operands
				// (a label may be nothing but a stacked tolerance), render
				// the stacking separator as a slash.
				for i+1 < len(s) && s[i+1] != ';' {
					i++
					if s[i] == '^' || s[i] == '#' {
						b.WriteByte('/')
					} else {
						b.WriteByte(s[i])
					}
				}
				if i+1 < len(s) {
					i++
				}
			case 'f', 'F', 'H', 'h', 'C', 'c', 'T', 'Q', 'W', 'A':
				// parameterized code, runs to the next semicolon
				for i+1 < len(s) && s[i] != ';' {
					i++
				}
			default:
				// single-letter toggle such as \L or \O
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
