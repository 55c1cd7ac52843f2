package esign

import "time"

// Envelope statuses understood by CreateEnvelope and VoidEnvelope.
const (
	StatusCreated = "created"
	StatusSent    = "sent"
	StatusVoided  = "voided"
)

// EnvelopeDefinition is the body of a create envelope call.
type EnvelopeDefinition struct {
	EmailSubject string      `json:"emailSubject,omitempty"`
	Documents    []Document  `json:"documents"`
	Recipients   *Recipients `json:"recipients,omitempty"`
	Status       string      `json:"status,omitempty"`
}

type Document struct {
	DocumentBase64 string `json:"documentBase64"`
	DocumentID     string `json:"documentId"`
	FileExtension  string `json:"fileExtension"`
	Name           string `json:"name"`
}

type Recipients struct {
	Signers      []Signer     `json:"signers"`
	CarbonCopies []CarbonCopy `json:"carbonCopies"`
}

type Signer struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId,omitempty"`
	RoutingOrder string `json:"routingOrder,omitempty"`
	Tabs         *Tabs  `json:"tabs,omitempty"`
}

type CarbonCopy struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId,omitempty"`
	RoutingOrder string `json:"routingOrder,omitempty"`
}

type Tabs struct {
	SignHereTabs []SignHere `json:"signHereTabs"`
}

// SignHere places a signature box relative to AnchorString.
type SignHere struct {
	AnchorString  string `json:"anchorString"`
	AnchorUnits   string `json:"anchorUnits"`
	AnchorXOffset string `json:"anchorXOffset"`
	AnchorYOffset string `json:"anchorYOffset"`
}

// CreateOptions are the query flags of a create envelope call.
type CreateOptions struct {
	MergeRolesOnDraft  bool
	ChangeRoutingOrder bool
}

// EnvelopeSummary is returned by a create envelope call.
type EnvelopeSummary struct {
	EnvelopeID     string    `json:"envelopeId"`
	URI            string    `json:"uri"`
	StatusDateTime time.Time `json:"statusDateTime"`
	Status         string    `json:"status"`
}

type voidRequest struct {
	Status       string `json:"status"`
	VoidedReason string `json:"voidedReason"`
}

type errorDetails struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}
