package extract

import "strings"

// findObject returns the first balanced {...} span. Braces inside string
// literals do not count.
func findObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// sanitize rewrites what models commonly get wrong inside JSON strings:
// \xHH becomes \u00HH, a backslash that does not start a valid escape is
// doubled, and raw control characters are escaped.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			switch {
			case i+3 < len(s) && s[i+1] == 'x' && isHex(s[i+2]) && isHex(s[i+3]):
				b.WriteString(`\u00`)
				b.WriteByte(s[i+2])
				b.WriteByte(s[i+3])
				i += 3
			case i+5 < len(s) && s[i+1] == 'u' && isHex(s[i+2]) && isHex(s[i+3]) && isHex(s[i+4]) && isHex(s[i+5]):
				b.WriteString(s[i : i+6])
				i += 5
			case i+1 < len(s) && strings.IndexByte(`"\/bfnrt`, s[i+1]) >= 0:
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
			default:
				b.WriteString(`\\`)
			}
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case inString && c < 0x20:
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[c>>4])
				b.WriteByte(hexDigits[c&0xf])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

const hexDigits = "0123456789abcdef"

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
