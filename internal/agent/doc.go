// Package agent runs the calendar conversation loop.
//
// A run seeds the transcript with the user's utterance and alternates between
// two steps until the model answers without tool calls:
//
//	AWAIT_MODEL     --(assistant requested tools)-->  DISPATCH_TOOLS
//	AWAIT_MODEL     --(plain assistant reply)------>  DONE
//	DISPATCH_TOOLS  ------------------------------->  AWAIT_MODEL
//
// Each dispatch counts as one round. A run that exceeds the configured round
// cap ends in FAILED with ErrMaxRoundsExceeded.
//
// Model failures never abort a run: they are turned into a fixed apology
// message. Tool failures become error tool results so every tool call the
// model issued is answered before the model is invoked again.
package agent
