package handlers

import (
	"fmt"
	"strings"

	"docchat-be/internal/entity"
)

// Handlers cap the document text fed into generation so oversized uploads
// do not blow the provider's context window.
const maxDocumentContextChars = 12000

func buildSourceBlock(hits []entity.SearchHit) string {
	var b strings.Builder
	for i, hit := range hits {
		filename := "unknown"
		if name, ok := hit.Metadata[entity.MetaFilename].(string); ok {
			filename = name
		}
		fmt.Fprintf(&b, "Source %d (document: %s):\n%s", i+1, filename, hit.Content)
		if i+1 < len(hits) {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func buildQAPrompt(query, sourceBlock string, analytics bool) string {
	var prompt strings.Builder

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(sourceBlock)
	prompt.WriteString("\n</reference_material>\n\n")

	prompt.WriteString("<task>\n")
	if analytics {
		prompt.WriteString("You are a data analyst answering questions about the user's uploaded documents, including tabular data.\n")
		prompt.WriteString("Provide quantitative analysis grounded in the reference material.\n")
	} else {
		prompt.WriteString("You are a knowledgeable assistant answering questions about the user's uploaded documents.\n")
		prompt.WriteString("Provide exactly what the user needs based on their question and the reference material.\n")
	}
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Cite specific information from the sources when possible\n")
	prompt.WriteString("3. If the material doesn't contain what's being asked, say so honestly\n")
	if analytics {
		prompt.WriteString("4. Calculate relevant metrics, ratios, and statistics when the data allows it\n")
		prompt.WriteString("5. Identify trends, patterns, and anomalies, with specific numbers and percentages\n")
		prompt.WriteString("6. Compare categories or time periods when relevant\n")
	} else {
		prompt.WriteString("4. Be complete without skipping relevant information from the material\n")
		prompt.WriteString("5. Be clear and well-organized in your presentation\n")
	}
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your complete response based on the reference material:")

	return prompt.String()
}

func buildSummaryPrompt(documentContent string, maxWords int) string {
	var prompt strings.Builder

	prompt.WriteString("<document>\n")
	prompt.WriteString(documentContent)
	prompt.WriteString("\n</document>\n\n")

	prompt.WriteString("<task>\n")
	prompt.WriteString("Create an executive summary of the document above.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	fmt.Fprintf(&prompt, "1. Keep the summary under %d words\n", maxWords)
	prompt.WriteString("2. Extract 5-7 key quotes with context\n")
	prompt.WriteString("3. Focus on performance, risks, opportunities, and strategic insights\n")
	prompt.WriteString("4. Highlight important metrics and trends\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("Format your response as:\n")
	prompt.WriteString("EXECUTIVE SUMMARY:\n")
	prompt.WriteString("[Your summary here]\n\n")
	prompt.WriteString("KEY QUOTES:\n")
	prompt.WriteString("1. \"[Quote 1]\" - [Context]\n")
	prompt.WriteString("2. \"[Quote 2]\" - [Context]\n")
	prompt.WriteString("[Continue for 5-7 quotes]")

	return prompt.String()
}

func buildQuizPrompt(documentContent string, numQuestions int) string {
	var prompt strings.Builder

	prompt.WriteString("<document>\n")
	prompt.WriteString(documentContent)
	prompt.WriteString("\n</document>\n\n")

	prompt.WriteString("<task>\n")
	fmt.Fprintf(&prompt, "Generate %d multiple choice questions based on the document above.\n", numQuestions)
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Each question has 4 options (A, B, C, D)\n")
	prompt.WriteString("2. Provide the correct answer and a short rationale\n")
	prompt.WriteString("3. Questions test understanding, not memorization\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("Format your response as:\n")
	prompt.WriteString("Q1: [Question text]\n")
	prompt.WriteString("A. [Option A]\n")
	prompt.WriteString("B. [Option B]\n")
	prompt.WriteString("C. [Option C]\n")
	prompt.WriteString("D. [Option D]\n")
	prompt.WriteString("Correct Answer: [Letter]\n")
	prompt.WriteString("Rationale: [Explanation]\n\n")
	prompt.WriteString("[Continue for all questions]")

	return prompt.String()
}

// documentText renders a full document's chunks into one block, oldest
// chunk first, truncated to the context budget.
func documentText(doc *entity.Document) string {
	var b strings.Builder
	for i, chunk := range doc.Chunks {
		b.WriteString(chunk.Text)
		if i+1 < len(doc.Chunks) {
			b.WriteString("\n\n")
		}
		if b.Len() >= maxDocumentContextChars {
			break
		}
	}
	text := b.String()
	if len(text) > maxDocumentContextChars {
		runes := []rune(text)
		if len(runes) > maxDocumentContextChars {
			runes = runes[:maxDocumentContextChars]
		}
		text = string(runes)
	}
	return text
}
