package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/repository"
	"messprotokoll/internal/tolerance"
)

// ProtocolService orchestrates protocol CRUD, tolerance-fit application and
// the derived SOLL values.
type ProtocolService struct {
	repo     repository.Repository
	resolver *tolerance.Resolver
	events   *EventBus
}

// NewProtocolService creates a new protocol service
func NewProtocolService(repo repository.Repository, resolver *tolerance.Resolver, events *EventBus) *ProtocolService {
	return &ProtocolService{repo: repo, resolver: resolver, events: events}
}

// Create starts a new empty protocol and persists it.
func (s *ProtocolService) Create(ctx context.Context) (*domain.Protocol, error) {
	p := domain.NewProtocol(uuid.NewString())
	if err := s.repo.CreateProtocol(ctx, p); err != nil {
		return nil, fmt.Errorf("create protocol: %w", err)
	}
	s.events.Publish(Event{Type: EventProtocolCreated, Payload: p})
	return p, nil
}

// List returns all stored protocols, newest first.
func (s *ProtocolService) List(ctx context.Context) ([]*domain.Protocol, error) {
	return s.repo.ListProtocols(ctx)
}

// Get returns one protocol by ID.
func (s *ProtocolService) Get(ctx context.Context, id string) (*domain.Protocol, error) {
	return s.repo.GetProtocol(ctx, id)
}

// Update replaces a protocol with the submitted state. Every slot's target
// is recomputed server-side so a stale client cannot persist a wrong SOLL
// value.
func (s *ProtocolService) Update(ctx context.Context, p *domain.Protocol) error {
	for i := range p.Slots {
		p.Slots[i].Index = i
		p.Slots[i].RecomputeTarget()
	}
	if err := s.repo.UpdateProtocol(ctx, p); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventProtocolUpdated, Payload: p})
	return nil
}

// Delete removes a protocol.
func (s *ProtocolService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteProtocol(ctx, id); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventProtocolDeleted, Payload: map[string]string{"id": id}})
	return nil
}

// Import persists a protocol that came from outside (codec import or a
// spreadsheet load). It always gets a fresh ID so importing an exported
// file never collides with the protocol it was exported from.
func (s *ProtocolService) Import(ctx context.Context, p *domain.Protocol) (*domain.Protocol, error) {
	p.ID = uuid.NewString()
	for i := range p.Slots {
		p.Slots[i].Index = i
		p.Slots[i].RecomputeTarget()
	}
	if err := s.repo.CreateProtocol(ctx, p); err != nil {
		return nil, fmt.Errorf("import protocol: %w", err)
	}
	s.events.Publish(Event{Type: EventProtocolCreated, Payload: p})
	return p, nil
}

// ApplyFit resolves the ISO fit of one slot against the tolerance table and
// writes the deviations into the slot. A lookup miss is not an error: the
// slot keeps its current deviations and only the target is refreshed.
// Reports whether the table had a matching row.
func (s *ProtocolService) ApplyFit(ctx context.Context, id string, slotIndex int) (*domain.Protocol, bool, error) {
	p, err := s.repo.GetProtocol(ctx, id)
	if err != nil {
		return nil, false, err
	}

	slot := p.Slot(slotIndex)
	if slot == nil {
		return nil, false, fmt.Errorf("slot index %d out of range", slotIndex)
	}

	matched := ApplyFitToSlot(slot, s.resolver)

	if err := s.repo.UpdateProtocol(ctx, p); err != nil {
		return nil, false, err
	}
	s.events.Publish(Event{Type: EventProtocolUpdated, Payload: p})
	return p, matched, nil
}

// ApplyFitToSlot performs the pure slot mutation: resolve nominal + fit,
// fill the deviation fields on a match, and recompute the target either way.
func ApplyFitToSlot(slot *domain.MeasurementSlot, resolver *tolerance.Resolver) bool {
	matched := false
	if nominal, ok := domain.ParseMeasure(slot.Nominal); ok {
		if dev, found := resolver.Resolve(nominal, slot.ISOFit); found {
			slot.UpperDeviation = domain.FormatDeviation(dev.Upper)
			slot.LowerDeviation = domain.FormatDeviation(dev.Lower)
			matched = true
		}
	}
	slot.RecomputeTarget()
	return matched
}
