package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/radhian/payout-disbursement/entity"
)

// Channel is one issuer family's adapter: it turns transfers into the provider's wire payload and
// the provider's answers into entity.ProviderResponse values.
type Channel interface {
	Family() string
	// Send returns one response per transfer of the envelope. An error means the whole call failed
	// in transport and no transfer has a provider answer.
	Send(ctx context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error)
	Inquire(ctx context.Context, req *entity.InquiryRequest) (entity.ProviderResponse, error)
	// ParseCallback normalizes the rail's callback body into the generic callback shape.
	ParseCallback(body []byte) (entity.CallbackPayload, error)
}

// Registry holds the channel of every family plus the routing tables.
type Registry struct {
	routing  *Routing
	channels map[string]Channel
}

func NewRegistry(routing *Routing, channels ...Channel) *Registry {
	r := &Registry{
		routing:  routing,
		channels: make(map[string]Channel, len(channels)),
	}
	for _, ch := range channels {
		r.channels[ch.Family()] = ch
	}
	return r
}

func (r *Registry) Routing() *Routing {
	return r.routing
}

func (r *Registry) Channel(family string) (Channel, *CodeTable, error) {
	ch, ok := r.channels[family]
	if !ok {
		return nil, nil, fmt.Errorf("family %s: %w", family, entity.ErrUnknownFamily)
	}
	table, err := r.routing.Table(family)
	if err != nil {
		return nil, nil, err
	}
	return ch, table, nil
}

func (r *Registry) ForIssuer(issuer string) (Channel, *CodeTable, error) {
	family, err := r.routing.FamilyOf(issuer)
	if err != nil {
		return nil, nil, err
	}
	return r.Channel(family)
}

// parseGenericCallback reads the generic {transaction_reference, status_code, status_message} body.
func parseGenericCallback(body []byte) (entity.CallbackPayload, error) {
	var payload entity.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, entity.NewValidationError("body", "malformed callback payload")
	}
	if payload.TransactionReference == "" || payload.StatusCode == "" {
		return payload, entity.NewValidationError("body", "transaction_reference and status_code are required")
	}
	return payload, nil
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
