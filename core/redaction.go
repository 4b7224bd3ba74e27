package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactSensitiveFields masks secret-bearing values in log and error metadata.
// Ledger identifiers stay visible.
func RedactSensitiveFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	target := make(map[string]any, len(fields))
	for key, value := range fields {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			target[key] = RedactSensitiveFields(nested)
			continue
		}
		target[key] = value
	}
	return target
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isLedgerIdentifierKey(key) {
		return false
	}
	for _, token := range []string{"password", "secret", "token", "authorization", "api_key", "apikey"} {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

func isLedgerIdentifierKey(key string) bool {
	switch key {
	case "credential_definition_id",
		"schema_ledger_id",
		"issuer_id",
		"org_id",
		"tenant_id",
		"request_id":
		return true
	default:
		return false
	}
}
