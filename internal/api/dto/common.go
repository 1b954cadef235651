package dto

// MessageResponse is a generic success message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

// Message builds a MessageOutput.
func Message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}
