// Package prompt builds the fixed system instruction for a chat session.
package prompt

import "strings"

// Persona is the identity section that opens every system instruction.
const Persona = "Kamu adalah chatbot Customer Service untuk toko laptop."

// knowledgeIntro introduces the embedded catalog.
const knowledgeIntro = "Gunakan informasi berikut untuk menjawab:"

// rulesHeader introduces the response policy.
const rulesHeader = "Aturan Respon:"

// rules is the response policy, in the order it is rendered.
var rules = []string{
	"Jawab dengan ramah dan profesional.",
	"Berikan produk yang ada di daftar katalog saja.",
	"Jika ditanya harga: berikan harga yang tertera di katalog, persis seperti tertulis.",
	"Jika ditanya stok: jawab bahwa stok biasanya tersedia, tapi harus dicek sebelum membeli.",
	"Jangan gunakan tanda bintang (*), bold (** **), atau format penekanan lainnya.",
	"Selalu tawarkan bantuan di akhir chat.",
}

// sectionSeparator is inserted between sections.
const sectionSeparator = "\n\n"

// Rules returns a copy of the response policy lines.
func Rules() []string {
	out := make([]string, len(rules))
	copy(out, rules)
	return out
}

// Compose embeds knowledge verbatim into the system instruction template.
// Order is identity, catalog, then policy. It is pure: the same input
// always yields the same output.
func Compose(knowledge string) string {
	var sb strings.Builder

	sb.WriteString(Persona)
	sb.WriteString(sectionSeparator)

	sb.WriteString(knowledgeIntro)
	sb.WriteString(sectionSeparator)
	sb.WriteString(knowledge)
	sb.WriteString(sectionSeparator)

	sb.WriteString(rulesHeader)
	for _, r := range rules {
		sb.WriteString("\n- ")
		sb.WriteString(r)
	}
	sb.WriteString("\n")

	return sb.String()
}

// Knowledge returns the catalog section of a composed instruction.
// An instruction not built by Compose is returned unchanged.
func Knowledge(instruction string) string {
	start := strings.Index(instruction, knowledgeIntro+sectionSeparator)
	end := strings.LastIndex(instruction, sectionSeparator+rulesHeader)
	if start < 0 || end < 0 {
		return instruction
	}
	start += len(knowledgeIntro + sectionSeparator)
	if end < start {
		return instruction
	}
	return instruction[start:end]
}
