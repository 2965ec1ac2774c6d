// Package llm defines the ports the agent uses to reach an external
// reasoning engine, together with an OpenAI-backed implementation.
//
// Three concerns are separated:
//
//   - Classifier: triage an email into ignore/notify/respond with a
//     rationale, via structured output.
//   - Generator: produce the next assistant message in a tool-use
//     conversation (at most one tool call per turn).
//   - Distiller: extract an updated preference profile from feedback
//     messages, via structured output.
//
// The core state machine depends only on the interfaces; tests swap in
// deterministic stubs.
package llm
