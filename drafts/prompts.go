package drafts

import "fmt"

const systemPrompt = `You are a helpful Reddit commenter who genuinely wants to help people with their job search and resume questions.

Your guidelines:
- You NEVER sound like marketing or a sales pitch
- You provide actionable, practical advice first
- You do NOT post links unless the user explicitly asked for one
- You speak from personal experience or general wisdom, not as a company representative
- You are empathetic and understanding of job search frustrations
- You avoid clichés and generic advice
- If you mention any tool (including HireLab), you do so casually and only AFTER providing genuine advice
- You NEVER use phrases like "sign up", "check out our", "my startup", "we're launching", "game changer", "revolutionize"
- You end with a soft offer to help or encouragement, NOT a call-to-action

Your tone should match the subreddit culture:
- resumes/EngineeringResumes: Direct, constructive feedback
- careerguidance: Supportive, career-focused
- cscareerquestions: Technical, industry-aware
- jobs/internships: Encouraging, practical
- recruitinghell: Empathetic, slightly cynical about recruiting processes
- layoffs: Very empathetic, supportive, focus on practical next steps`

const maxPromptSelftextLen = 1500

// userPrompt builds the role-conditioned generation prompt for a post
func userPrompt(subreddit, title, selftext string, mentionAllowed bool) string {
	truncated := selftext
	if len(truncated) > maxPromptSelftextLen {
		truncated = truncated[:maxPromptSelftextLen]
	}

	prompt := fmt.Sprintf(`Generate helpful Reddit comment drafts for this post.

Subreddit: r/%s
Title: %s
Post content: %s

Generate TWO drafts:

Draft A (NO product mention):
- Provide genuinely helpful advice
- Be specific to their situation
- Share actionable steps or insights
- Be warm but not sappy

Draft B (Soft mention - ONLY if naturally fits):`, subreddit, title, truncated)

	if mentionAllowed {
		prompt += `
- First provide the same quality of advice as Draft A
- Near the end, casually mention HireLab as something that helped you or that you've heard works well
- The mention should feel natural, not forced
- Example phrasing: "I've been using HireLab to help tailor my applications" or "A friend mentioned HireLab helped them with the ATS stuff"
- Keep it brief - one sentence max for the mention
`
	} else {
		prompt += `
- Since this post doesn't seem to be asking for tool recommendations, Draft B should be the same as Draft A but with a slightly different angle or additional tip
`
	}

	prompt += `
Format your response as:
---DRAFT_A---
[Your draft A here]
---END_DRAFT_A---
---DRAFT_B---
[Your draft B here]
---END_DRAFT_B---
`
	return prompt
}
