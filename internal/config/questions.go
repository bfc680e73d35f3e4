package config

import "github.com/coralises/guildflow/internal/domain"

// Questionnaire returns the fixed question list for an application type.
// Workflows snapshot the returned slice into the application record at
// submission time, so edits here never reshape pending records.
func Questionnaire(t domain.ApplicationType) []string {
	switch t {
	case domain.ApplicationStaff:
		return []string{
			"What's your name?",
			"How old are you?",
			"What is your Minecraft username?",
			"Why do you want to be staff?",
			"What is your availability? How long are you available, do you have school/work, etc?",
			"Do you have any prior staffing experience? If so, please explain in detail and what you learned.",
			"Are you currently staff on any other servers? If so, name the servers.",
			"Why should we consider you for staff? What will you bring to the server?",
			"SCENARIO: Someone DMs you about a major duplication glitch and asks for items to tell the dupe method. What do you do?",
			"Provide any additional information you would like to include.",
		}
	case domain.ApplicationBuilder:
		return []string{
			"What's your name?",
			"How old are you?",
			"What's your Minecraft IGN?",
			"Can you send some of your builds?",
			"Why should we choose you over others?",
			"Is there anything else we need to know about you?",
		}
	case domain.ApplicationDev:
		return []string{
			"What's your name?",
			"How old are you?",
			"What's your Minecraft IGN?",
			"What have you developed before? Share examples if you can.",
			"Why should we choose you over others?",
			"Is there anything else we need to know about you?",
		}
	}
	return nil
}
