package policy

import _ "embed"

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Default returns the built-in bookstore matrix. The embedded document goes
// through the same Parse path as an external file, so it is validated like
// any other policy.
func Default() *Matrix {
	m, err := Parse(defaultPolicyYAML)
	if err != nil {
		panic("policy: embedded default policy is invalid: " + err.Error())
	}
	return m
}
