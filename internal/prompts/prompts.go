// Package prompts builds the generation requests sent upstream. The
// formats they ask for are the ones internal/parse reads back.
package prompts

import (
	"strings"

	"github.com/mind-engage/lessonquiz/internal/parse"
	"github.com/mind-engage/lessonquiz/internal/quiz"
)

// Mixed asks for all four objective kinds in one quiz.
const Mixed quiz.Kind = "mixed"

const tfFormat = `True/False Questions:
1. [question statement] - True
2. [question statement] - False`

const matchingFormat = `Matching Questions:
Matching set 1: [title or topic]
A. [term or concept]
B. [term or concept]
C. [term or concept]
D. [term or concept]

1. [definition or description that matches one of the above]
2. [definition or description that matches one of the above]
3. [definition or description that matches one of the above]
4. [definition or description that matches one of the above]`

const answerKeyRule = `IMPORTANT: Include a clear Answer Key in this format: Answer Key: A=3, B=1, C=4, D=2 (these are just examples, use the actual correct matches).`

const mcFormat = `Multiple Choice Questions:
Question 1: [question text]
A) [option text]
B) [option text]
C) [option text]
D) [option text]
✅ Answer corect: [list the correct letter(s)]`

const fbFormat = `Fill in the Blank:
1. [prompt with a blank, e.g. "Manus inseamna in latina _________"] (raspuns: [answer])
2. [prompt with a blank, e.g. "Henry Fayol a definit șase ______ de bază ale managementului"] (raspuns: [answer])`

const plainText = "Please output the result in plain text format, not JSON."

// Objective returns the prompt for one objective kind, or for the mixed quiz
// when kind is Mixed or empty.
func Objective(kind quiz.Kind, lesson string) string {
	var b strings.Builder
	switch kind {
	case quiz.KindTrueFalse:
		b.WriteString("Generate a quiz with at least 10 True/False questions based strictly on the following text, in the same language as the text.\n")
		b.WriteString("Format each question as follows:\n")
		b.WriteString(tfFormat + "\n\n")
		b.WriteString("Create challenging but fair questions that are directly based on the text content.\n")
		b.WriteString(plainText + "\n")
	case quiz.KindMatching:
		b.WriteString("Generate a matching items quiz based strictly on the following text, in the same language as the text.\n")
		b.WriteString("Format the quiz as follows:\n")
		b.WriteString(matchingFormat + "\n\n")
		b.WriteString(answerKeyRule + "\n")
		b.WriteString("Create at least 5 matching sets covering different topics from the text.\n")
		b.WriteString(plainText + "\n")
	case quiz.KindMultipleChoice:
		b.WriteString(multipleChoice(false))
	case quiz.KindFillBlank:
		b.WriteString("Generate a fill-in-the-blank quiz with at least 8 questions based strictly on the following text, in the same language as the text.\n")
		b.WriteString("Format each question as follows:\n")
		b.WriteString(fbFormat + "\n\n")
		b.WriteString(plainText + "\n")
	default:
		b.WriteString("Generate a comprehensive objective quiz based strictly on the following text, in the same language as the text, including all four types of questions, placed in this exact order:\n\n")
		b.WriteString("1. " + tfFormat + "\n(Include at least 10 true/false questions)\n\n")
		b.WriteString("2. " + matchingFormat + "\n\n")
		b.WriteString(strings.Replace(answerKeyRule, "this format:", "this format for each matching set:", 1) + "\n")
		b.WriteString("(Include at least 5 matching sets)\n\n")
		b.WriteString("3. " + mcFormat + "\n\n(Include at least 8 multiple choice questions)\n\n")
		b.WriteString("4. " + fbFormat + "\n(Include at least 8 fill-in-the-blank questions)\n\n")
		b.WriteString("IMPORTANT: You MUST include all four sections in your response with the correct answer keys. Make sure to format the headings exactly as shown above.\n")
		b.WriteString("For multiple choice, include both single-answer and multiple-answer questions.\n")
		b.WriteString(plainText + "\n")
	}
	return withText(&b, lesson)
}

// Grid returns the prompt for the single-answer multiple choice quiz.
func Grid(lesson string) string {
	var b strings.Builder
	b.WriteString(multipleChoice(true))
	return withText(&b, lesson)
}

func multipleChoice(single bool) string {
	format, kinds := mcFormat, "both types of questions: single-answer and multiple-answer questions."
	if single {
		kinds = "ONLY single-answer questions (exactly one correct option per question)."
		format = strings.Replace(format, "[list the correct letter(s)]", "[correct letter]", 1)
	}
	return "Generate a multiple-choice quiz with exactly 20 questions based strictly on the following text, in romanian.\n\n" +
		"Format the quiz in plain text, not JSON. Follow this structure exactly:\n\n" +
		format + "\n\n" +
		"Requirements:\n" +
		"- The quiz must include " + kinds + "\n" +
		"- DO NOT label answers with \"(correct)\" in the options.\n" +
		"- Provide a brief explanation (1-2 sentences) in romanian after each answer that focuses on why the correct answer is right.\n" +
		"- Ensure all questions are directly based on the input text.\n" +
		"- Avoid repetition or irrelevant questions.\n" +
		"- MAKE SURE THE ANSWERS LABELED AS CORRECT ARE ACTUALLY CORRECT AND THEY CORRESPOND WITH THE GIVEN EXPLANATION.\n"
}

func withText(b *strings.Builder, lesson string) string {
	b.WriteString("\nTEXT:\n")
	b.WriteString(parse.Normalize(lesson))
	return b.String()
}
