// Package repository defines the data access interface for measurement
// protocols.
//
// The interface is implemented by the sqlite subpackage. Indexed header
// columns carry what list views and file naming need; the full protocol
// lives in a JSON document column, so the schema does not chase every form
// field.
package repository
