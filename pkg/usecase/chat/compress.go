package chat

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"google.golang.org/genai"
)

const (
	compressionRatio = 0.7 // Compress first 70% by byte size
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

// isTokenLimitError checks if the error is due to token limit exceeded
func isTokenLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	// Example: "The input token count (2500030) exceeds the maximum number of tokens allowed (1048576)."
	return apiErr.Code == 400 &&
		apiErr.Status == "INVALID_ARGUMENT" &&
		strings.HasPrefix(apiErr.Message, "The input token count (") &&
		strings.Contains(apiErr.Message, ") exceeds the maximum number of tokens allowed (")
}

// contentSize calculates the byte size of a content by JSON marshaling
func contentSize(content *genai.Content) int {
	data, err := json.Marshal(content)
	if err != nil {
		return 0
	}
	return len(data)
}

// splitIndex returns the number of leading contents that hold the first 70%
// of the history by byte size, or 0 if nothing can be split off
func splitIndex(contents []*genai.Content) int {
	totalBytes := 0
	byteSizes := make([]int, len(contents))
	for i, content := range contents {
		size := contentSize(content)
		byteSizes[i] = size
		totalBytes += size
	}

	threshold := int(float64(totalBytes) * compressionRatio)

	cumulativeBytes := 0
	for i, size := range byteSizes {
		cumulativeBytes += size
		if cumulativeBytes >= threshold {
			if i+1 >= len(contents) {
				return 0
			}
			return i + 1
		}
	}
	return 0
}

// compressHistory replaces the older part of the history with a summary
func compressHistory(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) ([]*genai.Content, error) {
	if len(contents) == 0 {
		return nil, goerr.New("history is empty")
	}

	idx := splitIndex(contents)
	if idx == 0 {
		return nil, goerr.New("insufficient content to compress")
	}

	summary, err := summarizeContents(ctx, gemini, contents[:idx])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to summarize contents")
	}

	summaryContent := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: "=== Previous Conversation Summary ===\n\n" + summary},
		},
	}

	return append([]*genai.Content{summaryContent}, contents[idx:]...), nil
}

// dropHistory discards the older part of the history without summarizing it
func dropHistory(contents []*genai.Content) []*genai.Content {
	idx := splitIndex(contents)
	if idx == 0 {
		return nil
	}
	return append([]*genai.Content{}, contents[idx:]...)
}

// shrinkHistory makes the history smaller for a retry. It summarizes when it
// can and drops the older turns otherwise.
func shrinkHistory(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) []*genai.Content {
	compressed, err := compressHistory(ctx, gemini, contents)
	if err == nil {
		return compressed
	}
	return dropHistory(contents)
}

// summarizeContents generates a summary of the given conversation contents
func summarizeContents(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) (string, error) {
	contentsWithPrompt := append(append([]*genai.Content{}, contents...), genai.NewContentFromText(summarizePromptRaw, genai.RoleUser))

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText("You are an assistant that summarizes gardening conversations.", ""),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	resp, err := gemini.GenerateContent(ctx, contentsWithPrompt, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("no summary generated")
	}

	var summary strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			summary.WriteString(part.Text)
		}
	}

	if summary.Len() == 0 {
		return "", goerr.New("empty summary generated")
	}

	return summary.String(), nil
}
