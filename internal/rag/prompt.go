package rag

import (
	"fmt"
	"strings"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
	"github.com/tmc/langchaingo/prompts"
)

const groundingInstructions = "You are an expert assistant. Use ONLY the provided document context to answer the user’s question.\n" +
	"Think step by step, extract the relevant facts, and provide a concise final answer.\n" +
	"CITE page numbers in square brackets where evidence appears (e.g., [p. 12]).\n" +
	"If the answer is not in the context, say so explicitly.\n\n"

// BuildGroundingPrompt injects the retrieved context ahead of the question.
func BuildGroundingPrompt(question string, results []commonModels.RetrievalResult) string {
	contextBlock := strings.Join(FormatResults(results), "\n\n")
	return fmt.Sprintf("%sContext:\n%s\n\nQuestion: %s\nAnswer:", groundingInstructions, contextBlock, question)
}

const agentPrefix = "You are an expert assistant using ReAct. " +
	"If a PDF search tool is available, first decide if the question can be answered from the PDF. " +
	"If yes, call `search_pdf` with a focused query, read the snippets, and cite pages when relevant. " +
	"If no relevant PDF content exists, answer directly. " +
	"Be concise, accurate, and complete. If the PDF does not contain the answer, say so."

const SearchToolName = "search_pdf"

const SearchToolDescription = "Use this tool to search the uploaded PDF(s) and retrieve the most relevant text chunks.\n" +
	"Provide a focused query. The tool returns raw snippets with page references.\n" +
	"Use these snippets as authoritative context when answering."

const reactFormat = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{{.tool_names}}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question`

// buildReActPrompt is the zero-shot ReAct template for a single tool. The executor fills
// input and agent_scratchpad.
func buildReActPrompt(tool Tool) prompts.PromptTemplate {
	return prompts.PromptTemplate{
		Template: agentPrefix + "\n\nYou have access to the following tools:\n\n{{.tool_descriptions}}\n\n" +
			reactFormat + "\n\nBegin!\n\nQuestion: {{.input}}\n{{.agent_scratchpad}}",
		TemplateFormat: prompts.TemplateFormatGoTemplate,
		InputVariables: []string{"input", "agent_scratchpad"},
		PartialVariables: map[string]any{
			"tool_names":        tool.Name,
			"tool_descriptions": tool.Name + ": " + tool.Description,
		},
	}
}

func buildDirectPrompt(question string) string {
	return fmt.Sprintf("%s\n\nUser question: %s\nAnswer:", agentPrefix, question)
}
