package core

import (
	"bytes"
	"encoding/json"
	"testing"

	"pgregory.net/rapid"
)

func TestDecodeCreationResponse_FlatShape(t *testing.T) {
	raw := json.RawMessage(`{
		"state": "finished",
		"credentialDefinitionId": "did:a:3:CL:s1:t1",
		"credentialDefinition": {"tag": "t1", "schemaId": "s1", "issuerId": "did:a"}
	}`)
	shape, draft, err := DecodeCreationResponse(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if shape != ShapeFlat {
		t.Fatalf("expected flat shape, got %s", shape)
	}
	want := CredentialDefinitionDraft{Tag: "t1", SchemaLedgerID: "s1", IssuerID: "did:a", CredentialDefinitionID: "did:a:3:CL:s1:t1"}
	if draft != want {
		t.Fatalf("expected %+v, got %+v", want, draft)
	}
}

func TestDecodeCreationResponse_NestedShape(t *testing.T) {
	raw := json.RawMessage(`{
		"credentialDefinition": {
			"state": "finished",
			"credentialDefinitionId": "did:a:3:CL:s1:t1",
			"credentialDefinition": {"tag": "t1", "schemaId": "s1", "issuerId": "did:a"}
		}
	}`)
	shape, draft, err := DecodeCreationResponse(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if shape != ShapeNested {
		t.Fatalf("expected nested shape, got %s", shape)
	}
	if draft.CredentialDefinitionID != "did:a:3:CL:s1:t1" || draft.Tag != "t1" {
		t.Fatalf("unexpected draft %+v", draft)
	}
}

func TestReconcileCredentialDefinition_UnmatchedShapes(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>`,
		"array":            `[1,2]`,
		"empty object":     `{}`,
		"pending flat":     `{"state":"wait","credentialDefinition":{"tag":"t"}}`,
		"pending nested":   `{"credentialDefinition":{"state":"action"}}`,
		"finished no id":   `{"state":"finished","credentialDefinition":{"tag":"t","schemaId":"s","issuerId":"i"}}`,
		"flat no tag":      `{"state":"finished","credentialDefinitionId":"cd","credentialDefinition":{"schemaId":"s","issuerId":"i"}}`,
		"flat no schema":   `{"state":"finished","credentialDefinitionId":"cd","credentialDefinition":{"tag":"t","issuerId":"i"}}`,
		"flat blank tag":   `{"state":"finished","credentialDefinitionId":"cd","credentialDefinition":{"tag":"  ","schemaId":"s"}}`,
		"nested no body":   `{"credentialDefinition":{"state":"finished","credentialDefinitionId":"cd"}}`,
		"failed w/ reason": `{"state":"failed","reason":"ledger timeout"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReconcileCredentialDefinition(json.RawMessage(raw))
			if !IsUnexpected(err) {
				t.Fatalf("expected unexpected fault, got %v", err)
			}
		})
	}
}

func TestResolutionError(t *testing.T) {
	if got := resolutionError(json.RawMessage(`{"resolutionMetadata":{"error":"notFound"}}`)); got != "notFound" {
		t.Fatalf("expected notFound, got %q", got)
	}
	if got := resolutionError(json.RawMessage(`{"resolutionMetadata":{}}`)); got != "" {
		t.Fatalf("expected no resolution error, got %q", got)
	}
	if got := resolutionError(json.RawMessage(`"plain"`)); got != "" {
		t.Fatalf("expected no resolution error for non-object, got %q", got)
	}
}

func ledgerToken(t *rapid.T, label string) string {
	return rapid.StringMatching(`[A-Za-z0-9:_\-]{1,24}`).Draw(t, label)
}

func TestReconcile_BothShapesProduceIdenticalDrafts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tag := ledgerToken(t, "tag")
		schemaID := ledgerToken(t, "schemaId")
		issuerID := ledgerToken(t, "issuerId")
		credDefID := ledgerToken(t, "credentialDefinitionId")
		body := map[string]any{"tag": tag, "schemaId": schemaID, "issuerId": issuerID}

		flat, err := json.Marshal(map[string]any{
			"state":                  "finished",
			"credentialDefinitionId": credDefID,
			"credentialDefinition":   body,
		})
		if err != nil {
			t.Fatalf("marshal flat: %v", err)
		}
		nested, err := json.Marshal(map[string]any{
			"credentialDefinition": map[string]any{
				"state":                  "finished",
				"credentialDefinitionId": credDefID,
				"credentialDefinition":   body,
			},
		})
		if err != nil {
			t.Fatalf("marshal nested: %v", err)
		}

		flatDraft, err := ReconcileCredentialDefinition(flat)
		if err != nil {
			t.Fatalf("reconcile flat: %v", err)
		}
		nestedDraft, err := ReconcileCredentialDefinition(nested)
		if err != nil {
			t.Fatalf("reconcile nested: %v", err)
		}
		flatBytes, _ := json.Marshal(flatDraft)
		nestedBytes, _ := json.Marshal(nestedDraft)
		if !bytes.Equal(flatBytes, nestedBytes) {
			t.Fatalf("drafts differ: %s vs %s", flatBytes, nestedBytes)
		}
		if flatDraft.Tag != tag || flatDraft.SchemaLedgerID != schemaID || flatDraft.IssuerID != issuerID {
			t.Fatalf("draft lost fields: %+v", flatDraft)
		}
	})
}

func TestCreationPayloads_TenantOnlyOnSharedTopology(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		class := rapid.SampledFrom([]TopologyClass{TopologyDedicated, TopologyShared}).Draw(t, "class")
		topology := AgentTopology{
			AgentEndpoint: "http://" + ledgerToken(t, "endpoint"),
			OrgDID:        ledgerToken(t, "orgDid"),
			Class:         class,
		}
		if class == TopologyShared {
			topology.TenantID = rapid.StringMatching(`[a-z0-9\-]{0,12}`).Draw(t, "tenantId")
		}
		orgID := ledgerToken(t, "orgId")

		builders := []func() (any, error){
			func() (any, error) {
				return buildCreatePayload(topology, orgID, ledgerToken(t, "tag"), ledgerToken(t, "schema"), topology.OrgDID)
			},
			func() (any, error) {
				return buildGetPayload(topology, orgID, ledgerToken(t, "credDefId"))
			},
		}
		for _, build := range builders {
			payload, err := build()
			if err != nil {
				t.Fatalf("build payload: %v", err)
			}
			encoded, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("marshal payload: %v", err)
			}
			decoded := map[string]any{}
			if err := json.Unmarshal(encoded, &decoded); err != nil {
				t.Fatalf("unmarshal payload: %v", err)
			}
			_, hasTenant := decoded["tenantId"]
			if class == TopologyDedicated && hasTenant {
				t.Fatalf("dedicated payload carries tenantId: %s", encoded)
			}
			if class == TopologyShared && !hasTenant {
				t.Fatalf("shared payload lacks tenantId: %s", encoded)
			}
		}
	})
}

func TestCreationPayloads_RejectUnknownTopology(t *testing.T) {
	_, err := buildCreatePayload(AgentTopology{Class: "EDGE"}, "org", "tag", "schema", "did")
	if !IsUnexpected(err) {
		t.Fatalf("expected unexpected fault, got %v", err)
	}
	_, err = buildGetPayload(AgentTopology{}, "org", "cd")
	if !IsUnexpected(err) {
		t.Fatalf("expected unexpected fault, got %v", err)
	}
}
