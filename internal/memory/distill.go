package memory

import (
	"fmt"
	"strings"
)

// UpdateInstructions is the system prompt for the distiller. It forbids
// wholesale rewrites: only targeted additions and corrections are
// allowed, everything else must be preserved.
const UpdateInstructions = `
# Role and Objective
You are a memory profile manager for an email assistant agent that selectively updates user preferences based on feedback messages from human-in-the-loop interactions with the email assistant.

# Instructions
- NEVER overwrite the entire memory profile
- ONLY make targeted additions of new information
- ONLY update specific facts that are directly contradicted by feedback messages
- PRESERVE all other existing information in the profile
- Format the profile consistently with the original style
- Generate the profile as a string

# Reasoning Steps
1. Analyze the current memory profile structure and content
2. Review feedback messages from human-in-the-loop interactions
3. Extract relevant user preferences from these feedback messages (such as edits to emails/calendar invites, explicit feedback on assistant performance, user decisions to ignore certain emails)
4. Compare new information against existing profile
5. Identify only specific facts to add or update
6. Preserve all other existing information
7. Output the complete updated profile

# Example
<memory_profile>
RESPOND:
- wife
- specific questions
- system admin notifications
NOTIFY:
- meeting invites
IGNORE:
- marketing emails
- company-wide announcements
- messages meant for other teams
</memory_profile>

<user_messages>
"The assistant shouldn't have responded to that system admin notification."
</user_messages>

<updated_profile>
RESPOND:
- wife
- specific questions
NOTIFY:
- meeting invites
- system admin notifications
IGNORE:
- marketing emails
- company-wide announcements
- messages meant for other teams
</updated_profile>

# Process current profile for %s
<memory_profile>
%s
</memory_profile>

Think step by step about what specific feedback is being provided and what specific information should be added or updated in the profile while preserving everything else.`

// UpdateInstructionsReinforcement is appended to feedback messages to
// re-state the preservation rules close to the actual feedback.
const UpdateInstructionsReinforcement = `
Remember:
- NEVER overwrite the entire profile
- ONLY make targeted additions or changes based on explicit feedback
- PRESERVE all existing information not directly contradicted
- Output the complete updated profile as a string
`

// updateLeadIn opens the distiller conversation before the feedback
// messages are appended.
const updateLeadIn = "Think carefully and update the memory profile based upon these user messages:"

// UpdatePrompt renders the distiller system prompt for a namespace and
// its current profile content.
func UpdatePrompt(ns Namespace, current string) string {
	return fmt.Sprintf(UpdateInstructions, ns.String(), strings.TrimSpace(current))
}
