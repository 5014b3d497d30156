// Package calendar_tools exposes calendar operations as tools the model can call.
//
// The closed set of tools is create_event_tool, list_events_tool,
// postpone_event_tool and delete_event_tool. Each tool decodes loosely typed
// JSON arguments, validates them, calls a calendar.Backend and answers with a
// JSON document on success or an "Error: ..." string on failure. Errors never
// escape a tool as Go errors except for internal encoding failures.
//
// The same Registry backs the agent loop and the stdio MCP server.
package calendar_tools
