package finance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyWindow is returned when a forecast ends before it starts.
var ErrEmptyWindow = errors.New("empty forecast window")

// SpecValidationError reports a malformed or inconsistent account or rule declaration.
type SpecValidationError struct {
	Rule    string
	Account string
	Field   string
	Reason  string
	Err     error
}

func (e *SpecValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid spec")
	switch {
	case e.Rule != "":
		fmt.Fprintf(&sb, ": rule %q", e.Rule)
	case e.Account != "":
		fmt.Fprintf(&sb, ": account %q", e.Account)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, ": %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&sb, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err)
	}
	return sb.String()
}

func (e *SpecValidationError) Unwrap() error {
	return e.Err
}

// UnknownAccountError reports a reference to an account id that is not declared.
// Rule or Chart names the referrer when there is one.
type UnknownAccountError struct {
	Rule      string
	Chart     string
	AccountID string
}

func (e *UnknownAccountError) Error() string {
	switch {
	case e.Rule != "":
		return fmt.Sprintf("rule %q references unknown account %q", e.Rule, e.AccountID)
	case e.Chart != "":
		return fmt.Sprintf("chart %q references unknown account %q", e.Chart, e.AccountID)
	default:
		return fmt.Sprintf("unknown account %q", e.AccountID)
	}
}

// DependencyCycleError lists the accounts on a cycle of the dependency graph, in edge order.
type DependencyCycleError struct {
	Accounts []string
}

func (e *DependencyCycleError) Error() string {
	if len(e.Accounts) == 0 {
		return "dependency cycle"
	}
	return fmt.Sprintf("dependency cycle: %s -> %s", strings.Join(e.Accounts, " -> "), e.Accounts[0])
}
