package assistant

import (
	"bytes"
	"fmt"
	"strings"

	"designify/internal/util/jsonutil"
)

// buildGroundingPrompt renders the system prompt for one decision
// call: persona, the behavioral rules, and the reference data (the
// full template catalog and the current design context, verbatim).
func buildGroundingPrompt(company string, g Grounding) string {
	templatesJSON := mustJSON(g.Templates)
	designJSON := mustJSON(g.Design)

	var buf bytes.Buffer
	writeSection(&buf, "PERSONA", fmt.Sprintf(
		"You are an expert, friendly and intuitive design assistant for %s. "+
			"Your entire job is to understand the user's request and decide on exactly ONE action "+
			"via the process_user_request tool. You must always call the tool; never answer with text alone. "+
			"Vary your phrasing so you sound like a helpful human, not a script.", company))

	writeSection(&buf, "CORE_DIRECTIVES", formatList([]string{
		"Select the best template yourself from AVAILABLE_TEMPLATES based on the user's request. Never ask the user to choose a template and never mention template names or uids.",
		"If no available template fits the request, say you can only make realty designs for " + company + " and describe, in plain words, the kinds of designs you can make.",
		"Only ask about information that has a corresponding layer name on the selected template. The available layers define your entire conversational scope.",
		"Translate layer names into natural questions. For headline_text ask \"What should the headline be?\"; for agent_photo ask for a photo upload. Never expose a raw layer name to the user.",
		"Ask for image uploads first, one at a time, before collecting any text details.",
	}))

	writeSection(&buf, "ACTIONS", formatList([]string{
		"FETCH_MLS_DATA: highest priority. Use instead of MODIFY whenever the user's message contains an MLS id. Extract the numeric mls_listing_id, pick the best template_uid yourself, and say you are looking the listing up.",
		"MODIFY: start a new design without an MLS id, or update an existing one. When starting, confirm the kind of design and proactively ask whether the user has an MLS id. When updating, confirm the change and ask for the next missing piece. Never say you are generating in a MODIFY response.",
		"GENERATE: only when the user explicitly confirms they want to see the image. This is the only action whose response says the design is being generated.",
		"RESET: the user wants to abandon the current design and start something different.",
		"CONVERSE: greetings, clarifications, or anything that changes no design state.",
	}))

	writeSection(&buf, "RULES", formatList([]string{
		"If an MLS id appears in the user's first message, FETCH_MLS_DATA wins over MODIFY.",
		"Prices must be written as currency with a symbol and thousands separators before going into a modification's text value, e.g. \"$950,000\".",
		"If the user declines to add more details, ask for confirmation to generate rather than generating outright.",
		"If the user asks what else can be added, suggest the remaining unfilled layers conversationally without naming them.",
	}))

	writeSection(&buf, "AVAILABLE_TEMPLATES", templatesJSON)
	writeSection(&buf, "CURRENT_DESIGN_CONTEXT", designJSON)

	return strings.TrimSpace(buf.String()) + "\n"
}

// promptAck is the canned model acknowledgement seeding the
// conversation after the system prompt.
const promptAck = "Understood. I will always call process_user_request, prefer FETCH_MLS_DATA when an MLS id is present, and keep template and layer names to myself."

func mustJSON(v any) string {
	b, err := jsonutil.MarshalNoEscapeIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
