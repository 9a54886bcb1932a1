package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/flowcore-dev/flowcore"
	openai "github.com/sashabaranov/go-openai"
)

// LLMCompletionNode sends a conversation to a chat-completion endpoint
// and appends the assistant's reply, grounded in the original
// implementation's LLMAPI::chat (model name, endpoint, optional bearer
// key, one request, first choice taken). Where the original hand-rolled
// the HTTP request and response structs, this node uses go-openai's
// client so any OpenAI-compatible endpoint (including self-hosted ones
// reachable via BaseURL) works without reimplementing the wire format.
type LLMCompletionNode struct {
	flowcore.BaseNode
	defaultModel   string
	defaultBaseURL string
	apiKey         string
	timeout        time.Duration
}

// NewLLMCompletionNode creates an LLMCompletionNode. baseURL may be
// empty to use the public OpenAI API; apiKey may be empty for
// endpoints that don't require authentication.
func NewLLMCompletionNode(id, name, defaultModel, baseURL, apiKey string) *LLMCompletionNode {
	return &LLMCompletionNode{
		BaseNode:       flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple),
		defaultModel:   defaultModel,
		defaultBaseURL: baseURL,
		apiKey:         apiKey,
		timeout:        60 * time.Second,
	}
}

func (n *LLMCompletionNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("messages", flowcore.MessageList).WithDescription("conversation so far"),
		flowcore.NewPort("model", flowcore.String).WithDescription("overrides the node's default model").Optional(),
		flowcore.NewPort("system_prompt", flowcore.String).WithDescription("prepended as a system message").Optional(),
	}
}

func (n *LLMCompletionNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("messages", flowcore.MessageList).WithDescription("conversation with the assistant reply appended"),
		flowcore.NewPort("reply", flowcore.String).WithDescription("the assistant reply's content alone"),
	}
}

func (n *LLMCompletionNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	history := inputs["messages"].AsMessageList()

	model := n.defaultModel
	if v, ok := inputs["model"]; ok && v.AsString() != "" {
		model = v.AsString()
	}

	conversation := make([]flowcore.Message, 0, len(history)+1)
	if v, ok := inputs["system_prompt"]; ok && v.AsString() != "" {
		conversation = append(conversation, flowcore.Message{Role: "system", Content: v.AsString()})
	}
	conversation = append(conversation, history...)

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(conversation))
	for _, m := range conversation {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	config := openai.DefaultConfig(n.apiKey)
	if n.defaultBaseURL != "" {
		config.BaseURL = n.defaultBaseURL
	}
	client := openai.NewClientWithConfig(config)

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: chatMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	reply := flowcore.Message{
		Role:    resp.Choices[0].Message.Role,
		Content: resp.Choices[0].Message.Content,
	}

	return map[string]flowcore.DataValue{
		"messages": flowcore.NewMessageList(append(conversation, reply)),
		"reply":    flowcore.NewString(reply.Content),
	}, nil
}
