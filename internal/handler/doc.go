// Package handler implements HTTP request handlers for the Messprotokoll API.
//
// This package provides the HTTP layer for the REST API, handling requests
// for protocol CRUD, tolerance lookups, drawing uploads and dimension picks,
// and workbook export/import.
//
// # Handlers
//
// ProtocolHandler handles protocol operations including slot-level ISO fit
// application and direct tolerance table lookups.
//
// DrawingHandler manages the active DXF drawing and resolves canvas clicks
// to dimension values or text entities.
//
// SheetHandler writes protocols into the styled xlsx template and reads them
// back, plus the JSON/YAML file codecs.
//
// Middleware provides request logging, error handling, and CORS support.
//
// # API Design
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - PUT for updates
// - DELETE for removal
//
// Errors are returned as JSON with appropriate HTTP status codes.
// Request bodies are validated before processing.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// Pick and tolerance lookups distinguish "nothing found" from failure: a miss
// is a 200 with hit/found set to false, never an error status.
package handler
