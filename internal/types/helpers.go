package types

// IntPtr returns a pointer to the given int.
func IntPtr(i int) *int {
	return &i
}

// Float64Ptr returns a pointer to the given float64.
func Float64Ptr(f float64) *float64 {
	return &f
}

// Text concatenates the text parts of a message. Non-text parts are skipped.
func (m Message) Text() string {
	var out string
	for _, p := range m.Content {
		if t, ok := p.(TextPart); ok {
			out += t.Text
		}
	}
	return out
}
