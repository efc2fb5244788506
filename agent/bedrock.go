package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hairizuan-noorazman/helpdesk-pilot/capability"
	"github.com/hairizuan-noorazman/helpdesk-pilot/credential"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the Bedrock runtime call used by the agent.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockAgent runs a Claude tool-use loop on AWS Bedrock.
type BedrockAgent struct {
	invoker ModelInvoker
	tools   Toolset
	usage   UsageRecorder
	config  Config
	logger  logger.Logger
}

// NewBedrockAgent creates an agent over an existing invoker.
func NewBedrockAgent(invoker ModelInvoker, tools Toolset, usage UsageRecorder, cfg Config, log logger.Logger) *BedrockAgent {
	return &BedrockAgent{
		invoker: invoker,
		tools:   tools,
		usage:   usage,
		config:  cfg.withDefaults(),
		logger:  log.WithField("component", "agent"),
	}
}

// Execute sends the instruction and serves tool calls until the model stops
// asking for tools. The concatenated text of the last reply is returned.
func (a *BedrockAgent) Execute(ctx context.Context, instruction string) (string, error) {
	if a.config.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.TimeLimit)
		defer cancel()
	}

	req := request{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        a.config.MaxTokens,
		System:           a.config.SystemPrompt,
		Tools:            ToolDefinitions(a.tools),
		Messages: []message{{
			Role:    "user",
			Content: []contentBlock{{Type: blockText, Text: buildInstruction(instruction)}},
		}},
	}

	for i := 0; i < a.config.MaxIterations; i++ {
		resp, err := a.invoke(ctx, req)
		if err != nil {
			return "", err
		}

		if resp.StopReason != stopToolUse {
			return replyText(resp.Content), nil
		}

		req.Messages = append(req.Messages, message{Role: "assistant", Content: resp.Content})
		var results []contentBlock
		for _, block := range resp.Content {
			if block.Type != blockToolUse {
				continue
			}
			results = append(results, a.callTool(ctx, block))
		}
		if len(results) == 0 {
			return replyText(resp.Content), nil
		}
		req.Messages = append(req.Messages, message{Role: "user", Content: results})
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxIterations, a.config.MaxIterations)
}

func (a *BedrockAgent) invoke(ctx context.Context, req request) (*response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := a.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.config.Model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var resp response
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if a.usage != nil {
		a.usage.Record(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return &resp, nil
}

// callTool runs one tool_use block. Failures are reported back to the model
// as error results so it can react; they never end the loop.
func (a *BedrockAgent) callTool(ctx context.Context, block contentBlock) contentBlock {
	result := contentBlock{Type: blockToolResult, ToolUseID: block.ID}

	args := capability.Args{}
	if len(block.Input) > 0 {
		if err := json.Unmarshal(block.Input, &args); err != nil {
			result.IsError = true
			result.Content = fmt.Sprintf("invalid tool input: %v", err)
			return result
		}
	}

	out, err := a.tools.Invoke(ctx, block.Name, args)
	if err != nil {
		a.logger.Warn(ctx, "tool call failed", map[string]interface{}{
			"tool":  block.Name,
			"error": err.Error(),
		})
		result.IsError = true
		result.Content = err.Error()
		return result
	}

	switch v := out.(type) {
	case string:
		result.Content = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			result.IsError = true
			result.Content = fmt.Sprintf("failed to encode tool result: %v", err)
			return result
		}
		result.Content = string(encoded)
	}
	return result
}

func replyText(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == blockText && strings.TrimSpace(b.Text) != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// BedrockFactory builds one Bedrock client per pooled credential. Each
// credential is "ACCESS_KEY_ID:SECRET_ACCESS_KEY[:SESSION_TOKEN]".
type BedrockFactory struct {
	Tools  Toolset
	Config Config
	Logger logger.Logger
}

// ParseAWSCredential splits a pooled secret into AWS key parts.
func ParseAWSCredential(secret string) (accessKey, secretKey, sessionToken string, err error) {
	parts := strings.SplitN(strings.TrimSpace(secret), ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("%w: expected ACCESS_KEY:SECRET_KEY", ErrInvalidCredential)
	}
	if len(parts) == 3 {
		sessionToken = parts[2]
	}
	return parts[0], parts[1], sessionToken, nil
}

func (f BedrockFactory) New(ctx context.Context, cred credential.Credential, usage UsageRecorder) (Agent, error) {
	accessKey, secretKey, token, err := ParseAWSCredential(cred.Secret)
	if err != nil {
		return nil, fmt.Errorf("credential %s: %w", cred, err)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(f.Config.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, token)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewBedrockAgent(bedrockruntime.NewFromConfig(cfg), f.Tools, usage, f.Config, f.Logger), nil
}
