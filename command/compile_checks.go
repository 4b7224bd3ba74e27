package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-creddef/core"
)

var (
	_ gocmd.Commander[CreateCredentialDefinitionMessage] = (*CreateCredentialDefinitionCommand)(nil)
	_ gocmd.Commander[StoreCredentialDefinitionMessage]  = (*StoreCredentialDefinitionCommand)(nil)
	_ MutatingService                                    = (*core.Service)(nil)
)
