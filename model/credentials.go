package model

// CredentialMatcher decides whether a locking or unlocking credential belongs to an address.
type CredentialMatcher interface {
	Matches(credential, address string) bool
}

// PlainCredentials treats a credential as the address itself. It stands in for script
// evaluation and offers no security.
type PlainCredentials struct{}

func (PlainCredentials) Matches(credential, address string) bool {
	return credential == address
}

// CanUnlockOutputWith reports whether the input was signed for by address.
func (in *Input) CanUnlockOutputWith(matcher CredentialMatcher, address string) bool {
	return matcher.Matches(in.ScriptSig, address)
}

// CanBeUnlockedWith reports whether address may spend the output.
func (out *Output) CanBeUnlockedWith(matcher CredentialMatcher, address string) bool {
	return matcher.Matches(out.ScriptPubKey, address)
}
