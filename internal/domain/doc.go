// Package domain defines the core domain types for the Messprotokoll
// measurement-protocol assistant.
//
// This package contains the entities and value objects a quality inspector
// works with: the protocol form, its measurement slots, ISO tolerance table
// entries, and the 2D geometry used when picking annotations off a drawing.
//
// # Core Types
//
// Protocol represents one measurement protocol: the header fields (customer,
// order, position, date, drawing number) plus a fixed number of measurement
// slots.
//
// MeasurementSlot holds one measured dimension: the nominal value taken from
// the drawing, an optional ISO fit class, the tolerance deviations, the
// measuring instrument, and the computed target (SOLL) value.
//
// ToleranceEntry is one row of the ISO tolerance-fit table, with deviations
// stored in micrometers and a size range that is exclusive at the lower
// bound and inclusive at the upper bound.
//
// # Number Handling
//
// Inspectors type values with a decimal comma. All fields are kept as display
// strings; ParseMeasure and FormatMeasure convert between the comma form and
// float64. A field that does not parse renders as the Placeholder value
// instead of failing.
//
// # Design Principles
//
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
// - Display-string fields with explicit parse helpers, never implicit casts
package domain
