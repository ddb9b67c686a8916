package assistant

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const assistantInstructions = `You are an administrative assistant for Miscio. Your role is to help admins manage student communications and analyze feedback. You can:
1. Run campaigns to reach out to students using the run_campaign function
2. Query and analyze student chat histories using query_student_chats
Keep responses professional but friendly. Always use the appropriate function when the admin wants to start a campaign or analyze student feedback.`

// Config holds the assistant platform configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type openAIPlatform struct {
	client *openai.Client
	model  string
}

// NewOpenAIPlatform creates a Platform backed by the OpenAI Assistants API.
func NewOpenAIPlatform(cfg *Config) Platform {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIPlatform{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// assistantTools defines the function-calling surface exposed to the remote
// assistant. Argument schemas mirror what the dispatcher parses.
func assistantTools() []openai.AssistantTool {
	return []openai.AssistantTool{
		{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "run_campaign",
				Description: "Run a campaign to send messages to students",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"campaign_type": {
							Type:        jsonschema.String,
							Enum:        []string{"feedback", "reminder", "announcement"},
							Description: "The type of campaign to run",
						},
						"campaign_description": {
							Type:        jsonschema.String,
							Description: "A brief description of what the campaign is about",
						},
					},
					Required: []string{"campaign_description"},
				},
			},
		},
		{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "query_student_chats",
				Description: "Search through student chat histories",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query": {
							Type:        jsonschema.String,
							Description: "The search query for filtering chat histories",
						},
						"campaign_id": {
							Type:        jsonschema.String,
							Description: "Optional campaign ID to filter chats",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

func (p *openAIPlatform) ProvisionAssistant(ctx context.Context, adminName string) (string, string, error) {
	name := fmt.Sprintf("Admin Assistant - %s", adminName)
	instructions := assistantInstructions
	created, err := p.client.CreateAssistant(ctx, openai.AssistantRequest{
		Name:         &name,
		Instructions: &instructions,
		Model:        p.model,
		Tools:        assistantTools(),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create assistant: %w", err)
	}

	threadID, err := p.CreateThread(ctx)
	if err != nil {
		return "", "", err
	}
	return created.ID, threadID, nil
}

func (p *openAIPlatform) CreateThread(ctx context.Context) (string, error) {
	thread, err := p.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

func (p *openAIPlatform) CreateMessage(ctx context.Context, threadID, text string) error {
	if _, err := p.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	}); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (p *openAIPlatform) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	run, err := p.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: assistantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return toRun(run), nil
}

func (p *openAIPlatform) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	run, err := p.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve run: %w", err)
	}
	return toRun(run), nil
}

func (p *openAIPlatform) ListRuns(ctx context.Context, threadID string, limit int) ([]*Run, error) {
	runList, err := p.client.ListRuns(ctx, threadID, openai.Pagination{Limit: &limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	runs := make([]*Run, 0, len(runList.Runs))
	for i := range runList.Runs {
		runs = append(runs, toRun(runList.Runs[i]))
	}
	return runs, nil
}

func (p *openAIPlatform) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := p.client.CancelRun(ctx, threadID, runID); err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}
	return nil
}

func (p *openAIPlatform) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	toolOutputs := make([]openai.ToolOutput, 0, len(outputs))
	for _, output := range outputs {
		toolOutputs = append(toolOutputs, openai.ToolOutput{
			ToolCallID: output.InvocationID,
			Output:     output.Output,
		})
	}
	if _, err := p.client.SubmitToolOutputs(ctx, threadID, runID, openai.SubmitToolOutputsRequest{
		ToolOutputs: toolOutputs,
	}); err != nil {
		return fmt.Errorf("failed to submit tool outputs: %w", err)
	}
	return nil
}

func (p *openAIPlatform) ListMessages(ctx context.Context, threadID string, limit int) ([]*ThreadMessage, error) {
	order := "desc"
	messageList, err := p.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	messages := make([]*ThreadMessage, 0, len(messageList.Messages))
	for _, message := range messageList.Messages {
		messages = append(messages, &ThreadMessage{
			Role: string(message.Role),
			Text: firstTextContent(message),
		})
	}
	return messages, nil
}

func firstTextContent(message openai.Message) string {
	for _, content := range message.Content {
		if content.Text != nil {
			return content.Text.Value
		}
	}
	return ""
}

func toRun(run openai.Run) *Run {
	result := &Run{
		ID:     run.ID,
		Status: RunStatus(run.Status),
	}
	if run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			result.PendingInvocations = append(result.PendingInvocations, ToolInvocation{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}
	return result
}
