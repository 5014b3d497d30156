package instrumentation

// Cardinality management helpers for metrics.
//
// Tool names come from model output and HTTP paths come from clients, so both
// are folded onto a known set before being used as label values.

// Calendar operation labels.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationMove   = "move"
	OperationDelete = "delete"
)

// LabelOther replaces label values outside the known set.
const LabelOther = "other"

// NormalizeLabel returns value if it is in known, and LabelOther otherwise.
//
// Example:
//
//	NormalizeLabel("list_events_tool", known)   // "list_events_tool"
//	NormalizeLabel("send_email_to_all", known)  // "other"
func NormalizeLabel(value string, known map[string]bool) string {
	if known[value] {
		return value
	}
	return LabelOther
}
