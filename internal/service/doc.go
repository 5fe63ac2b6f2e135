// Package service implements the application services of the protocol
// assistant.
//
// ProtocolService handles protocol lifecycle and tolerance-fit application;
// DrawingService owns the active drawing snapshot and delegates picks to the
// picker package. Both publish change events on the EventBus, which the SSE
// hub forwards to connected frontends.
package service
