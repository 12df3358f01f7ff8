// Package ingest converts upstream delay-signal records into canonical
// incidents. Upstream collectors disagree on field names, so every alias
// is resolved here at the boundary and nowhere else.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/autorescue/autorescue/pkg/types"
)

const DefaultMinDelayHours = 24

// Options controls incident construction from raw items.
type Options struct {
	MinDelayHours float64
	Source        string
	Now           func() time.Time
}

// FromItem builds an Incident from one raw dataset item. It returns ok=false
// when the item carries no order, no delay figure, or a delay under the
// configured threshold.
func FromItem(item map[string]any, opts Options) (types.Incident, bool) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	minDelay := opts.MinDelayHours
	if minDelay <= 0 {
		minDelay = DefaultMinDelayHours
	}

	delayHours, ok := floatValue(item, "delayHours", "delay_hours")
	if !ok || delayHours < minDelay {
		return types.Incident{}, false
	}

	orderID := stringValue(item, "orderId", "order_id")
	if orderID == "" {
		return types.Incident{}, false
	}

	incidentID := stringValue(item, "incidentId", "incident_id", "id", "trackingNumber")
	if incidentID == "" {
		incidentID = fmt.Sprintf("GEN-%s", orderID)
	}

	source := stringValue(item, "source")
	if source == "" {
		source = opts.Source
	}

	incident := types.Incident{
		IncidentID: incidentID,
		OrderID:    orderID,
		Type:       types.IncidentTypeShipmentDelay,
		DetectedAt: stringValue(item, "detectedAt", "detected_at"),
		DelayHours: delayHours,
		CarrierStatus: types.CarrierStatus{
			Code:              stringValue(item, "carrierStatusCode", "statusCode", "status_code"),
			Description:       stringValue(item, "carrierStatusDescription", "statusDescription", "status_description"),
			EstimatedDelivery: stringValue(item, "estimatedDelivery", "eta", "estimated_delivery"),
		},
		PromisedDeliveryDate: stringValue(item, "promisedDeliveryDate", "promised_delivery"),
		Source:               source,
		Region:               stringValue(item, "region"),
	}

	if incident.DetectedAt == "" {
		incident.DetectedAt = opts.Now().UTC().Format(time.RFC3339)
	}
	if incident.CarrierStatus.Code == "" {
		incident.CarrierStatus.Code = "DELAYED"
	}
	if incident.CarrierStatus.Description == "" {
		incident.CarrierStatus.Description = "Carrier reported delay."
	}

	// Keep everything we did not map, for audit.
	raw := make(map[string]any)
	for key, value := range item {
		switch key {
		case "delayHours", "delay_hours", "orderId", "order_id",
			"incidentId", "incident_id", "trackingNumber":
			continue
		}
		raw[key] = value
	}
	if len(raw) > 0 {
		incident.Raw = raw
	}

	return incident, true
}

func stringValue(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := item[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func floatValue(item map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok {
			continue
		}
		switch value := raw.(type) {
		case float64:
			return value, true
		case int:
			return float64(value), true
		case json.Number:
			parsed, err := value.Float64()
			if err != nil {
				return 0, false
			}
			return parsed, true
		case string:
			var parsed float64
			if _, err := fmt.Sscanf(value, "%f", &parsed); err != nil {
				return 0, false
			}
			return parsed, true
		}
	}
	return 0, false
}
