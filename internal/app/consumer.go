/**
 * @description
 * AMQP intake for conversion events. Other services report conversions on
 * the affiliate events exchange instead of calling the webhook; this handler
 * feeds them through the exact same pipeline as the HTTP surface.
 *
 * Ack/nack contract: malformed or invalid messages are acknowledged and
 * dropped (re-delivery cannot fix them); storage failures are nacked so the
 * broker re-queues the message.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/reflift/affiliate-service/internal/domain"
)

// conversionHandleTimeout bounds one message's trip through attribution and
// the transactional recorder.
const conversionHandleTimeout = 15 * time.Second

// ConversionEventConsumer adapts the service's conversion pipeline to the
// byte-slice handler shape the broker consumer dispatches to.
type ConversionEventConsumer struct {
	service *Service
}

// ConversionConsumer returns the handler bound to conversion.event.reported.
func (s *Service) ConversionConsumer() *ConversionEventConsumer {
	return &ConversionEventConsumer{service: s}
}

// HandleMessage processes one conversion event message. The return value is
// the ack decision: true acknowledges, false re-queues.
func (c *ConversionEventConsumer) HandleMessage(body []byte) bool {
	var event domain.ConversionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=conversion_consumer msg=\"dropping malformed message\" err=%v", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), conversionHandleTimeout)
	defer cancel()

	result, err := c.service.ProcessConversion(ctx, event)
	if err != nil {
		if errors.Is(err, ErrMissingEventFields) || errors.Is(err, ErrInvalidConversionAmount) {
			log.Printf("level=warn component=conversion_consumer msg=\"dropping invalid conversion event\" event_type=%s err=%v", event.EventType, err)
			return true
		}
		log.Printf("level=error component=conversion_consumer msg=\"conversion processing failed; re-queuing\" event_type=%s err=%v", event.EventType, err)
		return false
	}

	if result.Attributed {
		log.Printf("level=info component=conversion_consumer msg=\"conversion recorded\" conversion_id=%s method=%s", result.Conversion.ID, result.AttributionMethod)
	} else {
		log.Printf("level=info component=conversion_consumer msg=\"conversion received without attribution\" event_type=%s", event.EventType)
	}
	return true
}
