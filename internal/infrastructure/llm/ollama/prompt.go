package ollama

import "fmt"

func buildAnswerPrompt(question, docContext string) string {
	return fmt.Sprintf(`You are a campus assistant for university students.
Answer the question using only the numbered context passages below.
If the context does not contain the answer, say that the documents do not cover it.
Keep the answer short and factual. Do not invent dates, fees, or deadlines.

Question:
%s

Context:
%s
`, question, docContext)
}
