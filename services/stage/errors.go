package stage

import (
	"fmt"
	"strings"
)

// ContractError reports structurally invalid provider input: a missing
// trip field or an absent upstream payload. It is non-retryable.
type ContractError struct {
	Provider string
	Missing  []string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: missing required input: %s", e.Provider, strings.Join(e.Missing, ", "))
}

// NewContractError builds a ContractError for the named provider.
func NewContractError(provider string, missing ...string) error {
	return &ContractError{Provider: provider, Missing: missing}
}
