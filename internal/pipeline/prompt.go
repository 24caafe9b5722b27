package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"repoqa/internal/summary"
)

// selectPrompt embeds the repository summary verbatim and asks for a bare
// comma-separated path list.
func selectPrompt(question string, sum *summary.RepoSummary) string {
	b, _ := json.MarshalIndent(sum, "", "  ")
	var sb strings.Builder
	sb.WriteString("Based on the user question and repository summary, identify the most relevant files.\n\n")
	sb.WriteString("Repository Summary:\n")
	sb.Write(b)
	sb.WriteString("\n\nUser Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nRespond with ONLY the file paths that are most relevant, separated by commas. For example:\n")
	sb.WriteString("file1.py,file2.csv,file3.md\n\n")
	sb.WriteString("Important: Only return file paths that exist in the repository summary above.\n\n")
	sb.WriteString("File paths only:")
	return sb.String()
}

// answerPrompt builds the structured multi-file context for phase 2. Each
// file's content is embedded verbatim, truncated to the per-file budget.
func answerPrompt(question string, sum *summary.RepoSummary, files []fetchedFile) string {
	var sb strings.Builder
	sb.WriteString("You are a code analysis expert. Analyze the following repository files and provide a comprehensive answer to the user's question.\n\n")
	fmt.Fprintf(&sb, "User question: %s\n\n", question)
	fmt.Fprintf(&sb, "Repository: %s/%s\n", sum.Username, sum.RepoName)
	fmt.Fprintf(&sb, "Total files analyzed: %d\n\n", sum.TotalFiles)
	for _, f := range files {
		if strings.TrimSpace(f.Content) == "" {
			continue
		}
		fmt.Fprintf(&sb, "=== FILE: %s ===\n", f.Path)
		sb.WriteString(truncate(f.Content, maxFileChars))
		fmt.Fprintf(&sb, "\n=== END FILE: %s ===\n\n", f.Path)
	}
	sb.WriteString("Instructions:\n")
	sb.WriteString("- Provide specific, detailed explanations based on the actual code content\n")
	sb.WriteString("- Reference specific functions, classes, or code sections when relevant\n")
	sb.WriteString("- If files appear empty or problematic, mention this clearly\n")
	sb.WriteString("- Focus on answering the user's specific question\n")
	sb.WriteString("- Be thorough but concise\n\n")
	sb.WriteString("Answer:")
	return sb.String()
}
