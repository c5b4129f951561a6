package openai

// responseSystemPrompt frames the assistant for client-facing replies.
// Accuracy matters more than salesmanship: the model must admit when the
// provided context does not answer the question.
const responseSystemPrompt = `You are a helpful AI assistant for a real estate brokerage.
You help clients learn about properties, schedule viewings, and answer questions.
Use the provided context to give accurate, helpful responses.
Be professional, friendly, and concise.
If you don't know something, say so - don't make up information.`

// responseUserPromptTemplate receives the assembled context block and the
// client's question.
const responseUserPromptTemplate = `Context:
%s

Client question: %s

Provide a helpful response:`

// visionPrompt asks for a description usable as message content in a
// brokerage conversation. The caption, when present, is appended for grounding.
const visionPrompt = `Analyze this image in the context of real estate. ` +
	`Describe what you see, any text visible (OCR), property features, ` +
	`condition, or relevant details for a real estate agent. ` +
	`Be concise but thorough.`
