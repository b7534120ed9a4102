package model

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType tags a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one unit of structured message content. Which fields are
// set depends on Type:
//   - text: Text
//   - tool_use: ToolCall
//   - tool_result: ToolUseID, Text, IsError
type ContentBlock struct {
	Type      BlockType
	Text      string
	ToolCall  *ToolCall
	ToolUseID string
	IsError   bool
}

// Message represents a chat message in the conversation.
// Content holds plain text; Blocks holds structured content. When Blocks is
// non-empty it takes precedence over Content.
type Message struct {
	Role    Role
	Content string
	Blocks  []ContentBlock
}

// ToolCall is a model-issued request to invoke a tool by its catalog name.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// NewUserText returns a plain-text user message.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock returns a tool_use content block for call.
func ToolUseBlock(call ToolCall) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolCall: &call}
}

// ToolResultBlock returns a tool_result content block answering toolUseID.
func ToolResultBlock(toolUseID, text string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Text: text, IsError: isError}
}

// IsStructured reports whether the message carries content blocks.
func (m Message) IsStructured() bool {
	return len(m.Blocks) > 0
}

// ToolCalls returns the tool_use blocks of the message in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range m.Blocks {
		if b.Type == BlockToolUse && b.ToolCall != nil {
			calls = append(calls, *b.ToolCall)
		}
	}
	return calls
}
