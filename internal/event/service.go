// Package event orchestrates the event document workflows: creation with a
// dependent image upload, and independent per-field updates.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boosthub/boosthub/internal/blob"
	"github.com/boosthub/boosthub/internal/bus"
	"github.com/boosthub/boosthub/internal/docstore"
	"github.com/boosthub/boosthub/internal/model"
	"github.com/boosthub/boosthub/internal/notify"
	"github.com/boosthub/boosthub/internal/session"
	"go.uber.org/zap"
)

// Collection holding the event documents.
//
// The original client scattered four of the field setters across side
// collections named after the field (one even keyed by the field value).
// That was a defect: every setter here addresses the events document itself.
const Collection = "events"

// Service runs the event workflows.
type Service struct {
	sessions *session.Manager
	docs     docstore.Store
	blobs    blob.Store
	bus      *bus.Bus
	notices  *notify.Center
	logger   *zap.Logger
}

// NewService creates the event service.
func NewService(sessions *session.Manager, docs docstore.Store, blobs blob.Store, b *bus.Bus, notices *notify.Center, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		docs:     docs,
		blobs:    blobs,
		bus:      b,
		notices:  notices,
		logger:   logger,
	}
}

// Upload creates the event document, then uploads its image and back-links
// the download reference. The image steps only start after the create
// succeeded, since the blob path is derived from the generated id. If an
// image step fails the event stays valid without an image; nothing is
// rolled back.
func (s *Service) Upload(ctx context.Context, ev model.Event, image []byte) (string, error) {
	_, done, err := s.sessions.Begin()
	if err != nil {
		return "", err
	}
	defer done()

	// The image reference is only ever written by the linking step below.
	ev.ImageURL = ""
	id, err := s.docs.Create(ctx, Collection, ev.Fields())
	if err != nil {
		s.notices.Post("could not create the event")
		return "", fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", zap.String("event_id", id))
	s.publish("event.created", id)

	if len(image) == 0 {
		return id, nil
	}

	path := "event/image_" + id
	if err := s.blobs.Put(ctx, path, image, "image/jpeg"); err != nil {
		s.notices.Post("event created, but the image upload failed")
		return id, fmt.Errorf("upload event image: %w", err)
	}
	url, err := s.blobs.DownloadURL(ctx, path)
	if err != nil {
		s.notices.Post("event created, but the image upload failed")
		return id, fmt.Errorf("fetch event image url: %w", err)
	}
	if err := s.docs.Update(ctx, Collection, id, map[string]any{"image": url}); err != nil {
		s.notices.Post("event created, but the image could not be linked")
		return id, fmt.Errorf("link event image: %w", err)
	}

	s.publish("event.image_linked", id)
	return id, nil
}

// Get reads one event document.
func (s *Service) Get(ctx context.Context, id string) (model.Event, error) {
	doc, err := s.docs.Get(ctx, Collection, id)
	if err != nil {
		return model.Event{}, fmt.Errorf("read event: %w", err)
	}
	return model.EventFromFields(id, doc.Fields), nil
}

// SetWhatsUp updates the whatsUp field of one event.
func (s *Service) SetWhatsUp(ctx context.Context, eventID, whatsUp string) error {
	return s.setField(ctx, eventID, "whatsUp", whatsUp)
}

// SetLocation updates the free-text location of one event.
func (s *Service) SetLocation(ctx context.Context, eventID, location string) error {
	return s.setField(ctx, eventID, "location", location)
}

// SetDate updates the date of one event.
func (s *Service) SetDate(ctx context.Context, eventID, date string) error {
	return s.setField(ctx, eventID, "date", date)
}

// SetWhosThere updates the whosThere field of one event.
func (s *Service) SetWhosThere(ctx context.Context, eventID, whosThere string) error {
	return s.setField(ctx, eventID, "whosThere", whosThere)
}

// SetWhatElse updates the whatElse field of one event.
func (s *Service) SetWhatElse(ctx context.Context, eventID, whatElse string) error {
	return s.setField(ctx, eventID, "whatElse", whatElse)
}

// SetRestrictions updates the restrictions field of one event.
func (s *Service) SetRestrictions(ctx context.Context, eventID, restrictions string) error {
	return s.setField(ctx, eventID, "restrictions", restrictions)
}

// setField updates exactly one field of one event document. Setters carry
// no ordering dependency on each other; the store's per-field
// last-write-wins governs concurrent updates.
func (s *Service) setField(ctx context.Context, eventID, field, value string) error {
	_, done, err := s.sessions.Begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.docs.Update(ctx, Collection, eventID, map[string]any{field: value}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.notices.Post("this event no longer exists")
		} else {
			s.notices.Post("could not update the event")
		}
		return fmt.Errorf("set %s: %w", field, err)
	}
	s.publish("event.field_updated", eventID)
	return nil
}

func (s *Service) publish(kind, eventID string) {
	s.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   map[string]string{"event_id": eventID},
	})
}
