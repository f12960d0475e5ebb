// internal/funnel/generator.go
package funnel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Corphon/FunnelCraft/internal/models"
)

const (
	maxLeadMagnetPoints = 7
	maxBenefits         = 5
	defaultKeyword      = "GUIDE"
)

// Generate builds the blueprint document from the nine craft answers.
// Missing trailing answers are treated as empty. It never fails.
func Generate(answers []string, authorName, date string) string {
	return Render(BuildContent(answers, authorName, date))
}

// BuildContent maps the craft answers onto the structured blueprint by
// templating. Answer order is [problem, quickWin, format, title, points,
// idealClient, transformation, offer, objections].
func BuildContent(answers []string, authorName, date string) *models.BlueprintContent {
	// 除要点外的答案都压成单行, 防止答案中的标记行截断块字段
	var a [QuestionCount]string
	for i := 0; i < QuestionCount && i < len(answers); i++ {
		if i == AnswerPoints {
			a[i] = strings.TrimSpace(answers[i])
			continue
		}
		a[i] = oneLine(answers[i])
	}
	problem, quickWin, format, title := a[AnswerProblem], a[AnswerQuickWin], a[AnswerFormat], a[AnswerTitle]
	idealClient, transformation, offer, objections := a[AnswerIdealClient], a[AnswerTransformation], a[AnswerOffer], a[AnswerObjections]
	points := SplitPoints(a[AnswerPoints])

	author := oneLine(authorName)
	keyword := KeywordFor(title)

	return &models.BlueprintContent{
		AuthorName:    author,
		Date:          oneLine(date),
		LeadMagnet:    buildLeadMagnet(title, format, problem, quickWin, idealClient, transformation, offer, points),
		LandingPage:   buildLandingPage(author, title, format, problem, quickWin, idealClient, transformation, offer, objections, points),
		Emails:        buildEmails(author, title, format, problem, quickWin, transformation, offer, objections),
		SocialCapture: buildSocialCapture(keyword, title, format, problem, quickWin, idealClient, transformation),
	}
}

func buildLeadMagnet(title, format, problem, quickWin, idealClient, transformation, offer string, points []string) models.LeadMagnetContent {
	lm := models.LeadMagnetContent{
		Title:  title,
		Format: format,
		Intro: fmt.Sprintf("If you're %s and struggling with %s, this %s is for you. Inside, you'll find a simple, step-by-step path to %s.",
			lowerClip(idealClient, 60), lowerClip(problem, 80), strings.ToLower(format), lowerClip(transformation, 80)),
		Conclusion: fmt.Sprintf("You now have everything you need to %s. Put one step into action today, then come back to the next one tomorrow. The fastest way to %s is with support.",
			lowerClip(quickWin, 60), lowerClip(transformation, 50)),
		CTA: fmt.Sprintf("[CTA: Book a call to learn more about %s]", clip(oneLine(offer), 60)),
	}
	for _, p := range firstN(points, maxLeadMagnetPoints) {
		lm.Points = append(lm.Points, models.LeadMagnetPoint{
			Title: oneLine(p),
			Content: fmt.Sprintf("This step helps %s get one step closer to %s.",
				lowerClip(idealClient, 40), lowerClip(transformation, 50)),
		})
	}
	return lm
}

func buildLandingPage(author, title, format, problem, quickWin, idealClient, transformation, offer, objections string, points []string) models.LandingPageContent {
	lp := models.LandingPageContent{
		Headline:      oneLine(fmt.Sprintf("Free %s: %s", titleCase(format), title)),
		Subheadline:   oneLine(fmt.Sprintf("Discover how to %s, even if %s", lowerClip(quickWin, 80), lowerClip(objections, 60))),
		CTAButtonText: oneLine(fmt.Sprintf("Send Me The Free %s", titleCase(format))),

		ProblemIntro: oneLine(fmt.Sprintf("If you're %s, you've probably felt this:", lowerClip(idealClient, 60))),
		PainPoints: []string{
			oneLine(fmt.Sprintf("You're struggling with %s", lowerClip(problem, 60))),
			oneLine(fmt.Sprintf("You feel stuck because %s", lowerClip(objections, 60))),
			oneLine(fmt.Sprintf("You've tried to fix %s on your own, but nothing sticks", lowerClip(problem, 40))),
			oneLine(fmt.Sprintf("You keep telling yourself \"%s\"", clip(objections, 50))),
		},

		TransformationIntro: oneLine(fmt.Sprintf("Picture yourself 90 days from now, after putting %s into action:", title)),
		TransformationPoints: []string{
			oneLine(fmt.Sprintf("You've achieved %s", lowerClip(transformation, 80))),
			oneLine(fmt.Sprintf("You no longer worry about %s", lowerClip(problem, 50))),
			oneLine(fmt.Sprintf("You're ready for %s", lowerClip(offer, 60))),
		},

		BenefitsTitle: oneLine(fmt.Sprintf("Inside %s, You'll Discover:", title)),

		AboutHeadline:    oneLine(fmt.Sprintf("Hi, I'm %s", author)),
		AboutSubheadline: oneLine(fmt.Sprintf("I help %s achieve %s", lowerClip(idealClient, 50), lowerClip(transformation, 60))),
		AboutBio: fmt.Sprintf("[Add your credibility: certifications, years of experience, client results]\n\n[Share your story: why you started helping %s]\n\nI created %s because %s shouldn't stand between you and %s.",
			lowerClip(idealClient, 50), title, lowerClip(problem, 50), lowerClip(transformation, 50)),

		FinalCTAHeadline:   oneLine(fmt.Sprintf("Ready to %s?", lowerClip(quickWin, 50))),
		FinalCTAButtonText: oneLine(fmt.Sprintf("Get Instant Access To %s", title)),
		BelowFormText:      "100% free. No spam. Unsubscribe anytime.",
	}
	for _, p := range firstN(points, maxBenefits) {
		lp.Benefits = append(lp.Benefits, oneLine(p))
	}
	return lp
}

func buildEmails(author, title, format, problem, quickWin, transformation, offer, objections string) []models.Email {
	lowerFormat := strings.ToLower(format)
	signoff := "\n\nTalk soon,\n" + author

	return []models.Email{
		{
			Title:       oneLine(fmt.Sprintf("Your %s Is Here", titleCase(format))),
			Day:         EmailSendDays[0],
			SubjectLine: oneLine(fmt.Sprintf("Here's your %s: %s", lowerFormat, title)),
			Body: fmt.Sprintf("Hi there,\n\nThanks for grabbing %s! You can access it here: [LINK]\n\nInside, you'll learn how to %s. Start with the first section today, it only takes a few minutes.%s",
				title, lowerClip(quickWin, 100), signoff),
		},
		{
			Title:       "Your Quick Win",
			Day:         EmailSendDays[1],
			SubjectLine: "A quick win you can get today",
			Body: fmt.Sprintf("Hi there,\n\nI want to help you get a result fast. Here's the quick win: %s.\n\nMost people dealing with %s overcomplicate it. Keep it simple and take one small action today.%s",
				lowerClip(quickWin, 100), lowerClip(problem, 60), signoff),
		},
		{
			Title:       "Overcoming Doubts",
			Day:         EmailSendDays[2],
			SubjectLine: oneLine(fmt.Sprintf("Worried that %s?", lowerClip(objections, 40))),
			Body: fmt.Sprintf("Hi there,\n\nA lot of people tell me \"%s\". I get it, I've been there too.\n\nHere's the truth: that doubt is exactly what keeps you from %s. You don't need to have it all figured out to start.%s",
				clip(objections, 80), lowerClip(transformation, 80), signoff),
		},
		{
			Title:       "The Next Step",
			Day:         EmailSendDays[3],
			SubjectLine: oneLine(fmt.Sprintf("Ready for %s?", lowerClip(transformation, 40))),
			Body: fmt.Sprintf("Hi there,\n\nOver the past week you've learned how to %s. If you're ready to go further, I'd love to help.\n\n%s is designed to help you reach %s faster, with support every step of the way.\n\nReply to this email or book a call here: [LINK]%s",
				lowerClip(quickWin, 60), clip(oneLine(offer), 80), lowerClip(transformation, 60), signoff),
		},
	}
}

func buildSocialCapture(keyword, title, format, problem, quickWin, idealClient, transformation string) models.SocialCaptureContent {
	lowerFormat := strings.ToLower(format)
	return models.SocialCaptureContent{
		DMMessage: fmt.Sprintf("Hey [Name]! Thanks for your interest in %s. Here's the link to your free %s: [LINK]\n\nQuick question: what's your biggest challenge with %s right now?",
			title, lowerFormat, lowerClip(problem, 50)),
		PostCTAs: []models.PostCTA{
			{
				Hook: PostCTAHooks[0],
				Content: fmt.Sprintf("Struggling with %s? I created a free %s that shows you exactly how to %s. Comment \"%s\" and I'll send it to you.",
					lowerClip(problem, 50), lowerFormat, lowerClip(quickWin, 50), keyword),
			},
			{
				Hook: PostCTAHooks[1],
				Content: fmt.Sprintf("Imagine %s. My free %s, %s, walks you through the first steps. Comment \"%s\" to get it.",
					lowerClip(transformation, 60), lowerFormat, title, keyword),
			},
			{
				Hook: PostCTAHooks[2],
				Content: fmt.Sprintf("Most %s get this wrong about %s... I broke it all down in my free %s. Comment \"%s\" and I'll DM it to you.",
					lowerClip(idealClient, 40), lowerClip(problem, 40), lowerFormat, keyword),
			},
		},
		Keywords: uniqueUpper(keyword, firstWord(format), "SEND"),
		CommentReplies: []string{
			fmt.Sprintf("Sent! Check your DMs for your free %s.", lowerFormat),
			fmt.Sprintf("Love that you're ready to %s. Check your inbox!", lowerClip(quickWin, 40)),
			fmt.Sprintf("On its way! Let me know what you think of %s.", title),
		},
	}
}

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

// KeywordFor derives the comment trigger keyword from the lead magnet title:
// its first word, upper-cased, letters and digits only.
func KeywordFor(title string) string {
	if w := firstWord(title); w != "" {
		return strings.ToUpper(w)
	}
	return defaultKeyword
}

func firstWord(s string) string {
	for _, w := range nonWord.Split(s, -1) {
		if w != "" {
			return w
		}
	}
	return ""
}

func uniqueUpper(words ...string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
