package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/inboxagent/internal/email"
)

const triageSystemTemplate = `
< Role >
Your role is to triage incoming emails based upon instructs and background information below.
</ Role >

< Background >
%s.
</ Background >

< Instructions >
Categorize each email into one of three categories:
1. IGNORE - Emails that are not worth responding to or tracking
2. NOTIFY - Important information that worth notification but doesn't require a response
3. RESPOND - Emails that need a direct response
Classify the below email into one of these categories.
</ Instructions >

< Rules >
%s
</ Rules >
`

const triageUserTemplate = `
Please determine how to handle the below email thread:

From: %s
To: %s
Subject: %s
%s`

// agentSystemTemplate is the response agent prompt. The tool and
// instruction lists vary with the enabled feature set and are rendered
// by agentSystem. Slots: tool list, instruction list, response
// preferences, calendar preferences, background.
const agentSystemTemplate = `
< Role >
You are a top-notch executive assistant who cares about helping your executive perform as well as possible.
</ Role >

< Tools >
You have access to the following tools to help manage communications and schedule:
%s
</ Tools >

< Instructions >
When handling emails, follow these steps:
%s
</ Instructions >

< Response Preferences >
%s
</ Response Preferences >

< Calendar Preferences >
%s
</ Calendar Preferences >

< Background >
%s
</ Background >
`

// Tool list entries for the response agent prompt.
const (
	toolLineWriteEmail      = "write_email(to, subject, content) - Send emails to specified recipients"
	toolLineScheduleMeeting = "schedule_meeting(attendees, subject, duration_minutes, preferred_day, start_time) - Schedule calendar meetings where preferred_day is a YYYY-MM-DD date"
	toolLineCheckCalendar   = "check_calendar_availability(day) - Check available time slots for a given day"
	toolLineQuestion        = "question(content) - Ask the user any follow-up questions"
	toolLineDone            = "done - E-mail has been sent"
)

func triageSystem(background, triageInstructions string) string {
	return fmt.Sprintf(triageSystemTemplate, background, triageInstructions)
}

func triageUser(rec email.Record) string {
	return fmt.Sprintf(triageUserTemplate, rec.Author, rec.Recipient, rec.Subject, rec.Body)
}

// agentSystem renders the response agent prompt. The question tool
// only appears when a human can answer it; the calendar tools and
// their scheduling steps only when calendar tooling is enabled.
func agentSystem(responsePrefs, calPrefs, background string, includeQuestion, includeCalendar bool, today time.Time) string {
	tools := []string{toolLineWriteEmail}
	if includeCalendar {
		tools = append(tools, toolLineScheduleMeeting, toolLineCheckCalendar)
	}
	if includeQuestion {
		tools = append(tools, toolLineQuestion)
	}
	tools = append(tools, toolLineDone)

	steps := []string{
		"Carefully analyze the email content and purpose",
		"IMPORTANT --- always call a tool and call one tool at a time until the task is complete:",
	}
	if includeQuestion {
		steps = append(steps, "If you need more information to complete the task, use the question tool to ask a follow-up question to the user")
	}
	steps = append(steps, "For responding to the email, draft a response email with the write_email tool")
	if includeCalendar {
		steps = append(steps,
			"For meeting requests, use the check_calendar_availability tool to find open time slots",
			fmt.Sprintf("To schedule a meeting, use the schedule_meeting tool with a YYYY-MM-DD date for the preferred_day parameter\n   - Today's date is %s - use this for scheduling meetings accurately", today.Format("2006-01-02")),
			"If you scheduled a meeting, then draft a short response email using the write_email tool")
	}
	steps = append(steps,
		"After using the write_email tool, the task is complete",
		"If you have sent the email, then use the done tool to indicate that the task is complete")

	return fmt.Sprintf(agentSystemTemplate, numbered(tools), numbered(steps), responsePrefs, calPrefs, background)
}

// numbered renders a one-indexed list, one entry per line.
func numbered(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, item)
	}
	return b.String()
}
