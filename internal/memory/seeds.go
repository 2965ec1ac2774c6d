package memory

// Default profile content served on first read of each canonical
// namespace. Callers may override any of these through WithSeeds.

// DefaultBackground describes the user on whose behalf the agent acts.
const DefaultBackground = `
I'm a software engineer at a technology company.
`

// DefaultResponsePreferences seeds the email drafting style profile.
const DefaultResponsePreferences = `
Use professional and concise language. If the e-mail mentions a deadline, make sure to explicitly acknowledge and reference the deadline in your response.

When responding to technical questions that require investigation:
- Clearly state whether you will investigate or who you will ask
- Provide an estimated timeline for when you'll have more information or complete the task

When responding to event or conference invitations:
- Always acknowledge any mentioned deadlines (particularly registration deadlines)
- If workshops or specific topics are mentioned, ask for more specific details about them
- If discounts (group or early bird) are mentioned, explicitly request information about them
- Don't commit

When responding to collaboration or project-related requests:
- Acknowledge any existing work or materials mentioned (drafts, slides, documents, etc.)
- Explicitly mention reviewing these materials before or during the meeting
- When scheduling meetings, clearly state the specific day, date, and time proposed

When responding to meeting scheduling requests:
- If times are proposed, verify calendar availability for all time slots mentioned in the original email and then commit to one of the proposed times based on your availability by scheduling the meeting. Or, say you can't make it at the time proposed.
- If no times are proposed, then check your calendar for availability and propose multiple time options when available instead of selecting just one.
- Mention the meeting duration in your response to confirm you've noted it correctly.
- Reference the meeting's purpose in your response.
`

// DefaultCalendarPreferences seeds the meeting style profile.
const DefaultCalendarPreferences = `
30 minute meetings are preferred, but 15 minute meetings are also acceptable.
`

// DefaultTriageInstructions seeds the triage rules profile.
const DefaultTriageInstructions = `
Emails that are not worth responding to:
- Marketing newsletters and promotional emails
- Spam or suspicious emails
- CC'd on FYI threads with no direct questions

There are also other things that should be known about, but don't require an email response. For these, you should notify (using the 'notify' response). Examples of this include:
- Team member out sick or on vacation
- Build system notifications or deployments
- Project status updates without action items
- Important company announcements
- FYI emails that contain relevant information for current projects
- HR Department deadline reminders
- Subscription status / renewal reminders
- GitHub notifications

Emails that are worth responding to:
- Direct questions from team members requiring expertise
- Meeting requests requiring confirmation
- Critical bug reports related to team's projects
- Requests from management requiring acknowledgment
- Client inquiries about project status or features
- Technical questions about documentation, code, or APIs (especially questions about missing endpoints or features)
- Personal reminders related to family
- Personal reminders related to self-care (doctor appointments, etc)
`

// DefaultSeeds returns the canonical namespace seed map.
func DefaultSeeds() map[string]string {
	return map[string]string{
		NamespaceTriage.String():     DefaultTriageInstructions,
		NamespaceResponse.String():   DefaultResponsePreferences,
		NamespaceCalendar.String():   DefaultCalendarPreferences,
		NamespaceBackground.String(): DefaultBackground,
	}
}
