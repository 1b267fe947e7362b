package perception

import "strings"

var emphasisReplacer = strings.NewReplacer("**", "", "__", "", "*", "")

// StripEmphasis removes markdown emphasis markers from a model reply.
// A line opening with a "* " bullet keeps its bullet as "- ".
func StripEmphasis(s string) string {
	if !strings.ContainsAny(s, "*_") {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		body := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(body, "* ") {
			indent := line[:len(line)-len(body)]
			line = indent + "- " + body[2:]
		}
		lines[i] = emphasisReplacer.Replace(line)
	}
	return strings.Join(lines, "\n")
}
