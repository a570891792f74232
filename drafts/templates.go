package drafts

import "strings"

// templatePair is a rule-based fallback draft set for one post category
type templatePair struct {
	DraftA string
	DraftB string
}

// templateDrafts are used whenever LLM generation is unavailable or its
// response cannot be parsed
var templateDrafts = map[string]templatePair{
	"resume_general": {
		DraftA: `This is something a lot of people struggle with, so you're not alone.

A few things that have helped me and others:

1. **Lead with impact** - Start each bullet with a strong action verb and quantify results where possible. "Increased sales by 20%" hits different than "Responsible for sales."

2. **Tailor for each application** - I know it's tedious, but matching keywords from the job description really does make a difference, especially with ATS systems.

3. **Keep it clean** - One page if you're under 10 years experience, simple fonts, consistent formatting. Recruiters spend seconds on each resume initially.

What industry are you targeting? Happy to give more specific feedback if you want to share more details.`,
		DraftB: `This is something a lot of people struggle with, so you're not alone.

A few things that have helped me and others:

1. **Lead with impact** - Start each bullet with a strong action verb and quantify results where possible. "Increased sales by 20%" hits different than "Responsible for sales."

2. **Tailor for each application** - I know it's tedious, but matching keywords from the job description really does make a difference, especially with ATS systems.

3. **Keep it clean** - One page if you're under 10 years experience, simple fonts, consistent formatting. Recruiters spend seconds on each resume initially.

I've been using HireLab lately to help with the keyword matching part - it's been saving me a lot of time when tailoring applications.

What industry are you targeting? Happy to give more specific feedback if you want to share more details.`,
	},

	"no_callbacks": {
		DraftA: `Ugh, the silent treatment from companies is the worst. It's not you - the market is tough and the application process is broken.

Some things worth checking:

- **ATS formatting** - Fancy templates and graphics can break ATS parsing. Try a cleaner format and see if response rates change.
- **Application timing** - Applying early (within 24-48 hours of posting) typically gets better results.
- **Quality over quantity** - 10 tailored applications usually beat 50 spray-and-pray ones.
- **Network reach-outs** - A LinkedIn message to someone at the company can get your resume actually looked at.

How many applications have you sent out? And are you getting any recruiter screens at all, or complete silence?`,
		DraftB: `Ugh, the silent treatment from companies is the worst. It's not you - the market is tough and the application process is broken.

Some things worth checking:

- **ATS formatting** - Fancy templates and graphics can break ATS parsing. Try a cleaner format and see if response rates change.
- **Application timing** - Applying early (within 24-48 hours of posting) typically gets better results.
- **Quality over quantity** - 10 tailored applications usually beat 50 spray-and-pray ones.
- **Network reach-outs** - A LinkedIn message to someone at the company can get your resume actually looked at.

I started using HireLab recently to check how my resume parses through ATS systems - helped me catch some formatting issues I didn't know I had.

How many applications have you sent out? And are you getting any recruiter screens at all, or complete silence?`,
	},

	"ats_question": {
		DraftA: `ATS systems are frustrating but somewhat predictable once you understand them.

Key things to know:

- **Keywords matter** - They're often looking for exact matches from the job description. If they say "project management" and you wrote "managing projects," you might not match.
- **Simple formatting wins** - Standard fonts, no tables/columns/headers/footers, .docx or .pdf depending on what they ask.
- **Section headers** - Use standard ones (Experience, Education, Skills) so the parser knows what's what.
- **No graphics** - Logos, icons, photos - all of these can confuse parsers.

That said, ATS is usually just the first filter. A human still reviews the resumes that make it through, so you need to write for both.

What specific issues are you running into?`,
		DraftB: `ATS systems are frustrating but somewhat predictable once you understand them.

Key things to know:

- **Keywords matter** - They're often looking for exact matches from the job description. If they say "project management" and you wrote "managing projects," you might not match.
- **Simple formatting wins** - Standard fonts, no tables/columns/headers/footers, .docx or .pdf depending on what they ask.
- **Section headers** - Use standard ones (Experience, Education, Skills) so the parser knows what's what.
- **No graphics** - Logos, icons, photos - all of these can confuse parsers.

I've found HireLab helpful for checking how my resume parses and identifying keyword gaps - worth a try if you want to see what the ATS actually "sees."

What specific issues are you running into?`,
	},

	"career_advice": {
		DraftA: `This is a situation a lot of people find themselves in, and there's no one-size-fits-all answer.

What I'd think about:

- **What energizes you vs. drains you** - Not in a fluffy way, but practically. What tasks do you look forward to vs. dread?
- **Skills inventory** - What are you genuinely good at that's also marketable? Sometimes there's a disconnect between what we want and what we can get paid for.
- **Talk to people actually doing the roles** - LinkedIn coffee chats, informational interviews. The reality of a job is often different from the description.
- **Small experiments** - Before a big pivot, is there a way to test it? Side project, volunteer work, internal transfer?

What's your current situation - looking to pivot industries, move up, or something else?`,
		DraftB: `This is a situation a lot of people find themselves in, and there's no one-size-fits-all answer.

What I'd think about:

- **What energizes you vs. drains you** - Not in a fluffy way, but practically. What tasks do you look forward to vs. dread?
- **Skills inventory** - What are you genuinely good at that's also marketable? Sometimes there's a disconnect between what we want and what we can get paid for.
- **Talk to people actually doing the roles** - LinkedIn coffee chats, informational interviews. The reality of a job is often different from the description.
- **Small experiments** - Before a big pivot, is there a way to test it? Side project, volunteer work, internal transfer?

What's your current situation - looking to pivot industries, move up, or something else?`,
	},

	"default": {
		DraftA: `Thanks for sharing this - I think a lot of people in this sub can relate.

A few thoughts:

1. The job market right now is genuinely difficult, so don't beat yourself up too much. What worked a few years ago doesn't always work now.

2. Focus on what you can control - resume quality, application targeting, networking outreach, skill development.

3. Take care of yourself through the process. Job searching is emotionally draining.

Is there a specific aspect you're struggling with most? Happy to dig in deeper on any of this.`,
		DraftB: `Thanks for sharing this - I think a lot of people in this sub can relate.

A few thoughts:

1. The job market right now is genuinely difficult, so don't beat yourself up too much. What worked a few years ago doesn't always work now.

2. Focus on what you can control - resume quality, application targeting, networking outreach, skill development.

3. Take care of yourself through the process. Job searching is emotionally draining.

Is there a specific aspect you're struggling with most? Happy to dig in deeper on any of this.`,
	},
}

// templateCategories are evaluated in priority order, first match wins
var templateCategories = []struct {
	key     string
	phrases []string
}{
	{"ats_question", []string{"ats", "applicant tracking", "parse", "parsing"}},
	{"no_callbacks", []string{"no callback", "not hearing", "no response", "ghosted", "rejected"}},
	{"resume_general", []string{"resume", "cv", "formatting"}},
	{"career_advice", []string{"career", "pivot", "switch", "what should i"}},
}

// selectTemplate picks a template category based on post content
func selectTemplate(title, selftext string) string {
	combined := strings.ToLower(title + " " + selftext)

	for _, category := range templateCategories {
		for _, phrase := range category.phrases {
			if strings.Contains(combined, phrase) {
				return category.key
			}
		}
	}

	return "default"
}
