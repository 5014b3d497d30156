// Package conversation defines the messages exchanged between the user, the
// language model and the calendar tools, and the append-only State that holds
// them for the duration of one request.
//
// Message is a closed sum type: UserMessage, AssistantMessage and
// ToolResultMessage are its only implementations. Code that needs to branch on
// the kind of message uses a type switch instead of probing fields.
package conversation
