package liveguard

// callbackState manages wrapping and unwrapping of protected callback
// arguments and outputs. The host appends the current token as the final
// argument; the wrapped output leads with the (current, last) token pair.
type callbackState struct {
	current string
	last    string
	args    []any
}

// newCallbackState captures the raw argument list of a protected callback.
// The trailing argument is the current token; it doubles as the last token
// until revalidation moves current forward.
func newCallbackState(args []any) *callbackState {
	token := normalizeToken(args[len(args)-1])
	return &callbackState{
		current: token,
		last:    token,
		args:    args,
	}
}

// unwrapInput returns the arguments the inner handler expects: everything
// except the trailing token.
func (s *callbackState) unwrapInput() []any {
	return s.args[:len(s.args)-1]
}

// setCurrent records the revalidated token.
func (s *callbackState) setCurrent(token string) {
	s.current = normalizeToken(token)
}

// wrapOutput prepends the (current, last) token pair to the inner handler's
// outputs, matching the two token-store outputs the guard declared.
func (s *callbackState) wrapOutput(out []any) []any {
	wrapped := make([]any, 0, len(out)+2)
	wrapped = append(wrapped, s.current, s.last)
	return append(wrapped, out...)
}

// normalizeToken coerces a host-supplied property value to a token string.
// Anything that is not a non-empty string collapses to NullToken, so an
// unpopulated store and a backend null-equivalent behave identically.
func normalizeToken(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return NullToken
	}
	return s
}
