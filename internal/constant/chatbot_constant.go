package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Answer generation keeps its reasoning above the marker; only text
	// after the marker is streamed to the caller.
	AnswerMarker = "Final Answer:"

	GenerationFailureApology = "I apologize, but I couldn't generate a complete response. Please try asking your question again."

	// SUB-QUERY DECOMPOSITION (JSON Array Output)
	SubQueryGenerationPrompt = `Decompose the user's question into focused search queries for a documentation knowledge base.

Rules:
- Produce 1 to 4 queries.
- Each query targets ONE retrievable fact or topic.
- Keep the user's key terms; expand acronyms only when unambiguous.
- A simple question becomes a single query, do not pad the list.

CONVERSATION CONTEXT:
%s

USER QUESTION: %s

Respond with ONLY a JSON array of strings. No preamble, no explanation.
Example: ["first search query", "second search query"]`

	// ANSWER COMPOSITION (Marker-Gated Streaming)
	AnswerSystemPrompt = `You are a documentation assistant. Answer the user's question using ONLY the retrieved passages below.

RULES:
1. Ground every claim in the passages. Never add outside knowledge.
2. If the passages do not contain the answer, say so plainly.
3. Cite page titles inline where they support a claim.
4. Think through the passages first, then write the answer.

OUTPUT FORMAT (mandatory):
Work through your reasoning, then write the literal line "Final Answer:" followed by the complete answer. Everything after "Final Answer:" is shown to the user; nothing before it is.`

	NotFoundAnswer = "I couldn't find anything relevant to your question in the knowledge base. Try rephrasing it or asking about a different topic."
)
