// Package bedrockprovider implements ai.ModelProvider against an Anthropic
// model hosted on AWS Bedrock, standing in for "a cloud provider" (spec
// §6). It exercises the AWS SDK dependency the teacher framework carries in
// its ai module's go.mod but never calls from any retrieved source file.
package bedrockprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/madspark-go/ideaflow/ai"
)

// Provider calls the Anthropic Messages API shape Bedrock exposes for
// Claude models via InvokeModel.
type Provider struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

// New builds a Provider for modelID (e.g.
// "anthropic.claude-3-haiku-20240307-v1:0") in region, loading credentials
// from the default AWS credential chain.
func New(ctx context.Context, region, modelID string) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrockprovider: load aws config: %w", err)
	}
	return &Provider{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		region:  region,
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float32            `json:"temperature"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   anthropicUsage          `json:"usage"`
}

// Generate implements ai.ModelProvider.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ai.Options) (string, int, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	reqBody := anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      opts.Temperature,
		System:           opts.SystemInstruction,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("bedrockprovider: marshal request: %w", err)
	}

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", 0, fmt.Errorf("bedrockprovider: invoke model: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", 0, fmt.Errorf("bedrockprovider: decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", 0, fmt.Errorf("bedrockprovider: empty content")
	}

	text := ""
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return text, parsed.Usage.InputTokens + parsed.Usage.OutputTokens, nil
}

// Info implements ai.InfoProvider.
func (p *Provider) Info() ai.ProviderInfo {
	return ai.ProviderInfo{Name: "bedrock", Model: p.modelID, Region: p.region}
}
