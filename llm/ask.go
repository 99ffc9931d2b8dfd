package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/co-fun/mapscontacts/models"
)

// NoAnswer replaces an empty completion.
const NoAnswer = "No answer."

const systemInstruction = `You are an assistant that summarizes business data for Telegram. For each company, answer the user's question in a short, concise sentence specific to that company, then output the company in this format:

Company list:
- <short answer for this company>. <name> | <phone> | <website> | <directions link>
- ... (one per line, for each company in the data)

Only include the company list if there is data. The directions link is from the 'directions' column. Do not provide general summary but per-company answers and search on their website for more details.`

const promptTemplate = "Here is a table of businesses (columns: name, phone, website, status, closing time, address, review score, reviews count, directions):\n%s\n\nQuestion: %s\nAnswer:"

// AskResult is the answer to a question about a listing table.
type AskResult struct {
	Answer string
	Usage  *models.LLMUsage
}

// Ask sends the listing table and the question to the chat-completion
// endpoint and returns the model's answer verbatim. The call is made once,
// bounded by the client timeout.
func (c *Client) Ask(ctx context.Context, table, question string, params AskParams) (*AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "question is required", nil)
	}

	messages := []chatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: BuildPrompt(table, question)},
	}

	content, usage, err := c.complete(ctx, messages, c.resolve(params))
	if err != nil {
		return nil, err
	}
	if content == "" {
		content = NoAnswer
	}
	return &AskResult{Answer: content, Usage: usage}, nil
}

// BuildPrompt is the user message for a table and a question.
func BuildPrompt(table, question string) string {
	return fmt.Sprintf(promptTemplate, table, question)
}
