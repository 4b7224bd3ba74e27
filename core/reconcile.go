package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

const agentStateFinished = "finished"

type ResponseShape int

const (
	ShapeUnmatched ResponseShape = iota
	// ShapeFlat carries state and credentialDefinitionId at the top level.
	ShapeFlat
	// ShapeNested carries them inside credentialDefinition, one level deeper.
	ShapeNested
)

func (s ResponseShape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return "unmatched"
	}
}

type definitionBody struct {
	Tag      string `json:"tag"`
	SchemaID string `json:"schemaId"`
	IssuerID string `json:"issuerId"`
}

// definitionNode decodes credentialDefinition for both shapes: the flat
// shape fills the body fields, the nested shape fills the rest.
type definitionNode struct {
	definitionBody
	State                  string          `json:"state"`
	CredentialDefinitionID string          `json:"credentialDefinitionId"`
	CredentialDefinition   *definitionBody `json:"credentialDefinition"`
}

type creationEnvelope struct {
	State                  string          `json:"state"`
	CredentialDefinitionID string          `json:"credentialDefinitionId"`
	CredentialDefinition   *definitionNode `json:"credentialDefinition"`
	Reason                 string          `json:"reason"`
}

// DecodeCreationResponse classifies an agent creation response. The flat shape
// is checked first.
func DecodeCreationResponse(raw json.RawMessage) (ResponseShape, CredentialDefinitionDraft, error) {
	var envelope creationEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ShapeUnmatched, CredentialDefinitionDraft{}, fmt.Errorf("%w: %v", ErrUnmatchedResponse, err)
	}
	node := envelope.CredentialDefinition

	if strings.TrimSpace(envelope.State) == agentStateFinished && node != nil {
		return ShapeFlat, CredentialDefinitionDraft{
			Tag:                    node.Tag,
			SchemaLedgerID:         node.SchemaID,
			IssuerID:               node.IssuerID,
			CredentialDefinitionID: envelope.CredentialDefinitionID,
		}, nil
	}
	if node != nil && strings.TrimSpace(node.State) == agentStateFinished {
		body := definitionBody{}
		if node.CredentialDefinition != nil {
			body = *node.CredentialDefinition
		}
		return ShapeNested, CredentialDefinitionDraft{
			Tag:                    body.Tag,
			SchemaLedgerID:         body.SchemaID,
			IssuerID:               body.IssuerID,
			CredentialDefinitionID: node.CredentialDefinitionID,
		}, nil
	}

	state := strings.TrimSpace(envelope.State)
	if state == "" && node != nil {
		state = strings.TrimSpace(node.State)
	}
	if state == "" {
		return ShapeUnmatched, CredentialDefinitionDraft{}, ErrUnmatchedResponse
	}
	if reason := strings.TrimSpace(envelope.Reason); reason != "" {
		return ShapeUnmatched, CredentialDefinitionDraft{}, fmt.Errorf("%w: state %q: %s", ErrUnmatchedResponse, state, reason)
	}
	return ShapeUnmatched, CredentialDefinitionDraft{}, fmt.Errorf("%w: state %q", ErrUnmatchedResponse, state)
}

// ReconcileCredentialDefinition maps either creation response shape onto the
// canonical draft. An unmatched shape or a finished draft missing its ledger
// identifier, tag or schema id is an unexpected fault.
func ReconcileCredentialDefinition(raw json.RawMessage) (CredentialDefinitionDraft, error) {
	shape, draft, err := DecodeCreationResponse(raw)
	if err != nil {
		return CredentialDefinitionDraft{}, unexpectedError(err.Error(), nil)
	}
	required := []struct{ field, value string }{
		{"credentialDefinitionId", draft.CredentialDefinitionID},
		{"tag", draft.Tag},
		{"schemaId", draft.SchemaLedgerID},
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			return CredentialDefinitionDraft{}, unexpectedError("core: agent response is missing "+req.field, map[string]any{
				"response_shape": shape.String(),
				"field":          req.field,
			})
		}
	}
	return draft, nil
}

type resolutionEnvelope struct {
	ResolutionMetadata struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"resolutionMetadata"`
}

// resolutionError returns the resolver error carried by a lookup response, if
// any. Non-object responses carry no resolver error.
func resolutionError(raw json.RawMessage) string {
	var envelope resolutionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if message := strings.TrimSpace(envelope.ResolutionMetadata.Error); message != "" {
		if detail := strings.TrimSpace(envelope.ResolutionMetadata.Message); detail != "" {
			return message + ": " + detail
		}
		return message
	}
	return ""
}
