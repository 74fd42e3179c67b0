package config

import "bytes"

// StripJSONComments removes // and /* */ comments from JSONC content.
// Comment markers inside string literals are left alone.
func StripJSONComments(data []byte) []byte {
	out := bytes.NewBuffer(make([]byte, 0, len(data)))

	inString := false
	for i := 0; i < len(data); {
		c := data[i]

		if c == '"' && (i == 0 || data[i-1] != '\\') {
			inString = !inString
			out.WriteByte(c)
			i++
			continue
		}

		if !inString && c == '/' && i+1 < len(data) {
			switch data[i+1] {
			case '/':
				for i < len(data) && data[i] != '\n' {
					i++
				}
				continue
			case '*':
				i += 2
				for i+1 < len(data) {
					if data[i] == '*' && data[i+1] == '/' {
						i += 2
						break
					}
					i++
				}
				continue
			}
		}

		out.WriteByte(c)
		i++
	}

	return out.Bytes()
}
