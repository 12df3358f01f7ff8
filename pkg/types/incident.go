package types

// Incident is a detected shipment-delay event. Incidents are produced by
// upstream signal collectors (scrapers, carrier webhooks) and are immutable
// once emitted; the workflow only reads them.
type Incident struct {
	IncidentID           string         `json:"incidentId"`
	OrderID              string         `json:"orderId"`
	Type                 string         `json:"type"`
	DetectedAt           string         `json:"detectedAt"`
	CarrierStatus        CarrierStatus  `json:"carrierStatus"`
	PromisedDeliveryDate string         `json:"promisedDeliveryDate,omitempty"`
	DelayHours           float64        `json:"delayHours"`
	Source               string         `json:"source,omitempty"`
	Environment          string         `json:"environment,omitempty"`
	Region               string         `json:"region,omitempty"`
	Raw                  map[string]any `json:"raw,omitempty"`
}

type CarrierStatus struct {
	Code              string `json:"code"`
	Description       string `json:"description,omitempty"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
}

const IncidentTypeShipmentDelay = "shipment_delay"
