// Package core contains the credential-definition domain contracts, entities,
// and orchestration logic. Storage, transport, and command adapters depend on
// this package; core must not depend on any of them.
package core
