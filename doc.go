// Package espalier drives multi-step agent work along declarative plan
// graphs. A plan is a directed graph of task, decision, checkpoint, exit and
// escalate nodes loaded from YAML. The engine matches plans against user
// messages, then advances one node per host turn: verifying tool output
// against the current task, retrying within a per-node budget, expiring
// stale traversals and escalating exhausted ones.
//
// The host calls Step once per conversation turn and injects the returned
// Context into its next reasoning step. All traversal state lives in a
// pluggable StateStore, so sessions survive process restarts.
package espalier
