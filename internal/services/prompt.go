package services

import "careerminers/job-matcher/internal/models"

const skillExtractionInstruction = `You are a job search assistant. Read the user's message and extract the professional skills it states or clearly implies.

Follow these rules:
- Look for tools, technologies, methods, certifications and domain expertise.
- Respond with exactly one JSON object of the form {"skills": ["<skill>", ...]} and nothing else.
- Do not prefix the object with labels such as "Output:" and do not wrap it in markdown.
- If the message names no skills at all, respond with {"skills": []}.

Example:
Message: I am a software engineer specializing in devops looking for a job.
Response: {"skills": ["Software Engineering", "DevOps", "Kubernetes", "Docker", "Jenkins", "GitLab", "Golang", "Databricks"]}`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSkillExtractionMessages pairs the fixed instruction with the user's
// text, passed through verbatim.
func (pb *PromptBuilder) BuildSkillExtractionMessages(userInput string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: skillExtractionInstruction},
		{Role: models.RoleUser, Content: userInput},
	}
}
