package logx

import "strings"

// SecureString masks raw, keeping at most prefix leading and suffix trailing
// characters visible. Short values are masked entirely.
func SecureString(raw string, prefix, suffix int) string {
	const mask = "########"
	if raw == "" {
		return ""
	}
	if len(raw) <= prefix+suffix {
		return mask
	}
	var b strings.Builder
	b.WriteString(raw[:prefix])
	b.WriteString(mask)
	b.WriteString(raw[len(raw)-suffix:])
	return b.String()
}

// Token masks an opaque credential for logging.
func Token(raw string) string {
	return SecureString(raw, 6, 4)
}
