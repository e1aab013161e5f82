package namer

import (
	"fmt"
	"unicode/utf8"
)

// Extracted text beyond this many characters adds latency without
// improving the candidate.
const excerptLimit = 2000

const textPromptTemplate = `Based on the following %s content, generate a descriptive and concise filename.

Rules:
- Use lowercase letters and underscores only (e.g., 'my_file_name')
- If content contains numbering/sequence (like Lecture 3, Chapter 2, etc.), start with that number
- Be descriptive but concise (under 80 characters)
- Capture the main topic or purpose
- Format: {number}_{descriptive_name} if numbering exists, otherwise just {descriptive_name}
- Do NOT include file extension
- Do NOT include date/time

Examples:
- Lecture 3 about Programming → "3_programming_lecture"
- Quarterly Sales Report Q4 → "q4_quarterly_sales_report"
- Golden Gate Bridge photo → "golden_gate_bridge_sunset"

Content:
%s

Generate only the filename, nothing else.`

const imagePrompt = `Describe this image and generate a descriptive filename.

Rules:
- Use lowercase letters and underscores only (e.g., 'my_file_name')
- Be descriptive and capture the main subject/scene
- If there's text with numbering in the image, include that number at the start
- Be concise (under 80 characters)
- Format: {number}_{descriptive_name} if numbering exists, otherwise just {descriptive_name}
- Do NOT include file extension
- Do NOT include date/time

Examples:
- Photo of Golden Gate Bridge at sunset → "golden_gate_bridge_sunset"
- Screenshot of Lecture 3 slide → "3_lecture_programming"
- Diagram showing network architecture → "network_architecture_diagram"

Generate only the filename, nothing else.`

const ocrPrompt = `Extract all text from this document. Return only the extracted text.`

func textPrompt(fileType, content string) string {
	return fmt.Sprintf(textPromptTemplate, fileType, truncateRunes(content, excerptLimit))
}

// truncateRunes cuts s to at most limit bytes without splitting a rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
