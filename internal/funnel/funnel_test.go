package funnel

import (
	"strings"
	"testing"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnswers() []string {
	return []string{
		"Overwhelmed by social media marketing",
		"Plan a week of posts in one sitting",
		"Checklist",
		"Content Calendar Kickstart",
		"1. Pick your pillars\n2. Batch your posts\n- Schedule once a week",
		"Busy coaches who want more clients",
		"A steady stream of leads without daily posting",
		"Content Coaching Intensive",
		"I don't have time to create content",
	}
}

func TestSplitPoints(t *testing.T) {
	got := SplitPoints("1. Build trust\n2. Show proof\n- Close the loop")
	assert.Equal(t, []string{"Build trust", "Show proof", "Close the loop"}, got)

	assert.Equal(t, []string{"one", "two"}, SplitPoints("• one\n•  two \n\n"))
	assert.Empty(t, SplitPoints(""))
	assert.Empty(t, SplitPoints(" - 1. • "))
}

func TestCollector_WalksAllQuestions(t *testing.T) {
	c := NewCollector()
	first, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, 0, first.Index)

	answers := sampleAnswers()
	for i, a := range answers {
		next, done, err := c.SubmitAnswer(a)
		require.NoError(t, err)
		if i < QuestionCount-1 {
			require.False(t, done)
			require.NotNil(t, next)
			assert.Equal(t, i+1, next.Index)
			continue
		}
		assert.True(t, done)
		assert.Nil(t, next)
	}

	assert.True(t, c.Done())
	assert.Equal(t, answers, c.Answers())

	_, done, err := c.SubmitAnswer("one more")
	assert.True(t, done)
	assert.True(t, apperrors.IsConflictError(err))
}

func TestCollector_RejectsBlankAnswer(t *testing.T) {
	c := NewCollector()
	_, done, err := c.SubmitAnswer("   \n")
	assert.False(t, done)
	assert.True(t, apperrors.IsValidationError(err))
	assert.Equal(t, 0, c.Answered())

	_, _, err = c.SubmitAnswer("first")
	require.NoError(t, err)
	got := c.Answers()
	got[0] = "mutated"
	assert.Equal(t, []string{"first"}, c.Answers())
}

func TestGenerate_Structure(t *testing.T) {
	doc := Generate(sampleAnswers(), "Jordan Lee", "January 2, 2026")

	assert.Equal(t, 4, strings.Count(doc, "\n"+HeadingEmailPrefix+" "))
	for _, h := range []string{HeadingHero, HeadingProblem, HeadingTransformation, HeadingBenefits, HeadingAbout, HeadingFinalCTA, HeadingKeepOrDelete} {
		assert.Contains(t, doc, "\n"+h+"\n", h)
	}
	for _, s := range []string{sectionLeadMagnet, sectionLandingPage, sectionEmails, sectionSocialCapture, sectionNextSteps} {
		assert.Contains(t, doc, s)
	}
	assert.Less(t, strings.Index(doc, sectionLeadMagnet), strings.Index(doc, sectionLandingPage))
	assert.Less(t, strings.Index(doc, sectionLandingPage), strings.Index(doc, sectionEmails))
	assert.Less(t, strings.Index(doc, sectionEmails), strings.Index(doc, sectionSocialCapture))
	assert.Equal(t, 4, strings.Count(doc, ChecklistGlyph))
	assert.NotContains(t, doc, HeadingLeadMagnetDM)
}

func TestGenerate_EmptyAnswersNeverFail(t *testing.T) {
	doc := Generate(nil, "", "")
	assert.Equal(t, 4, strings.Count(doc, "\n"+HeadingEmailPrefix+" "))
	assert.Contains(t, doc, HeadingHero)

	content := BuildContent(make([]string, QuestionCount), "", "")
	assert.Empty(t, content.LeadMagnet.Points)
	assert.Empty(t, content.LandingPage.Benefits)
	assert.Len(t, content.LandingPage.PainPoints, 4)
}

func TestBuildContent_PointLimits(t *testing.T) {
	answers := sampleAnswers()
	answers[AnswerPoints] = "1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g\n8. h\n9. i"
	content := BuildContent(answers, "Jordan", "today")

	assert.Len(t, content.LeadMagnet.Points, 7)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, content.LandingPage.Benefits)
	assert.Equal(t, "CONTENT", content.SocialCapture.Keywords[0])
}

func TestBuildContent_TruncatesEmbeddedFragments(t *testing.T) {
	answers := sampleAnswers()
	answers[AnswerProblem] = strings.Repeat("x", 300)
	content := BuildContent(answers, "Jordan", "today")

	assert.Equal(t, "You're struggling with "+strings.Repeat("x", 60), content.LandingPage.PainPoints[0])
}

func TestBuildContent_TruncatesByCharacter(t *testing.T) {
	answers := sampleAnswers()
	answers[AnswerProblem] = strings.Repeat("客", 100)
	content := BuildContent(answers, "Jordan", "today")

	assert.Equal(t, "You're struggling with "+strings.Repeat("客", 60), content.LandingPage.PainPoints[0])
	assert.Equal(t, "héllo", clip("héllo wörld", 5))
	assert.Equal(t, "", clip("abc", 0))
}

func TestBuildContent_MultiLineAnswersStayInsideBlocks(t *testing.T) {
	answers := sampleAnswers()
	answers[AnswerIdealClient] = "busy coaches\n## NOTES\nmore"
	content := BuildContent(answers, "Jordan", "today")
	assert.Contains(t, content.LeadMagnet.Intro, "busy coaches ## notes more")

	parsed := Parse(Render(content))
	assert.Equal(t, content.LeadMagnet.Intro, parsed.LeadMagnet.Intro)
	assert.Equal(t, content.LandingPage.AboutBio, parsed.LandingPage.AboutBio)
	assert.Equal(t, "Content Calendar Kickstart", parsed.LeadMagnet.Title)
}

func TestParse_RoundTrip(t *testing.T) {
	content := BuildContent(sampleAnswers(), "Jordan Lee", "January 2, 2026")
	parsed := Parse(Render(content))

	lp := parsed.LandingPage
	assert.Equal(t, content.LandingPage.Headline, lp.Headline)
	assert.Equal(t, content.LandingPage.Subheadline, lp.Subheadline)
	assert.Equal(t, content.LandingPage.CTAButtonText, lp.CTAButtonText)
	assert.Equal(t, content.LandingPage.ProblemIntro, lp.ProblemIntro)
	assert.Equal(t, content.LandingPage.PainPoints, lp.PainPoints)
	assert.Equal(t, content.LandingPage.TransformationPoints, lp.TransformationPoints)
	assert.Equal(t, content.LandingPage.BenefitsTitle, lp.BenefitsTitle)
	assert.Equal(t, []string{"Pick your pillars", "Batch your posts", "Schedule once a week"}, lp.Benefits)
	assert.Equal(t, content.LandingPage.AboutHeadline, lp.AboutHeadline)
	assert.Equal(t, content.LandingPage.AboutBio, lp.AboutBio)
	assert.Equal(t, content.LandingPage.FinalCTAHeadline, lp.FinalCTAHeadline)
	assert.Equal(t, content.LandingPage.FinalCTAButtonText, lp.FinalCTAButtonText)
	assert.Equal(t, content.LandingPage.BelowFormText, lp.BelowFormText)

	lm := parsed.LeadMagnet
	assert.Equal(t, "Content Calendar Kickstart", lm.Title)
	assert.Equal(t, "Checklist", lm.Format)
	assert.Equal(t, content.LeadMagnet.Intro, lm.Intro)
	assert.Equal(t, content.LeadMagnet.Points, lm.Points)
	assert.Equal(t, content.LeadMagnet.Conclusion+"\n\n"+content.LeadMagnet.CTA, lm.Conclusion)

	require.Len(t, parsed.Emails, 4)
	for i, e := range parsed.Emails {
		assert.Equal(t, content.Emails[i].Title, e.Title)
		assert.Equal(t, EmailSendDays[i], e.Day)
		assert.Equal(t, content.Emails[i].SubjectLine, e.SubjectLine)
		assert.Equal(t, content.Emails[i].Body, e.Body)
	}

	sc := parsed.SocialCapture
	assert.Equal(t, content.SocialCapture.DMMessage, sc.DMMessage)
	assert.Equal(t, content.SocialCapture.PostCTAs, sc.PostCTAs)
	assert.Equal(t, content.SocialCapture.Keywords, sc.Keywords)
	assert.Equal(t, content.SocialCapture.CommentReplies, sc.CommentReplies)

	assert.Equal(t, sc.DMMessage, parsed.LeadMagnetWorkflow.DMMessage)
	require.Len(t, parsed.LeadMagnetWorkflow.PostCTAs, 2)
	assert.Contains(t, parsed.LeadMagnetWorkflow.PostCTAs[0], "Content Calendar Kickstart")
	assert.Contains(t, parsed.LeadMagnetWorkflow.PostCTAs[1], "checklist")
}

func TestParse_PrefersLeadMagnetDM(t *testing.T) {
	content := BuildContent(sampleAnswers(), "Jordan", "today")
	content.SocialCapture.LeadMagnetDMMessage = "Here is your checklist: [LINK]"

	parsed := Parse(Render(content))
	assert.Equal(t, content.SocialCapture.DMMessage, parsed.SocialCapture.DMMessage)
	assert.Equal(t, "Here is your checklist: [LINK]", parsed.LeadMagnetWorkflow.DMMessage)
}

func TestParse_BioKeepsLabelledLines(t *testing.T) {
	content := BuildContent(sampleAnswers(), "Jordan", "today")
	content.LandingPage.AboutBio = "I coach founders.\n\n**Certified:** ICF PCC since 2019\n\nI love this work."

	parsed := Parse(Render(content))
	assert.Equal(t, content.LandingPage.AboutBio, parsed.LandingPage.AboutBio)
	assert.Equal(t, content.LandingPage.FinalCTAHeadline, parsed.LandingPage.FinalCTAHeadline)
}

func TestParse_PostCTAsWithAnyHook(t *testing.T) {
	content := BuildContent(sampleAnswers(), "Jordan", "today")
	content.SocialCapture.PostCTAs = []models.PostCTA{
		{Hook: "Problem Hook", Content: "a"},
		{Hook: "Dream Hook", Content: "b\n\nstill b"},
		{Hook: "Curiosity Hook", Content: "c"},
	}

	parsed := Parse(Render(content))
	assert.Equal(t, content.SocialCapture.PostCTAs, parsed.SocialCapture.PostCTAs)
	assert.Equal(t, content.SocialCapture.Keywords, parsed.SocialCapture.Keywords)
}

func TestParse_PostCTAsUnnumberedCanonicalHooks(t *testing.T) {
	doc := "## POST CTA EXAMPLES\n**Aspiration Hook:** imagine it\n\n**Curiosity Hook:**\nguess what\n\n## COMMENT KEYWORDS\n• FREE\n"

	parsed := Parse(doc)
	assert.Equal(t, []models.PostCTA{
		{Hook: "Aspiration Hook", Content: "imagine it"},
		{Hook: "Curiosity Hook", Content: "guess what"},
	}, parsed.SocialCapture.PostCTAs)
}

func TestParse_EmptyDocument(t *testing.T) {
	assert.Equal(t, models.NewEditableContent(), Parse(""))
	assert.Equal(t, models.NewEditableContent(), Parse("  \n\n"))
	assert.Equal(t, models.NewEditableContent(), Parse("just some notes\nwith nothing recognizable"))
}

func emailBlock(n int, title, subject, body string) string {
	return "## EMAIL " + string(rune('0'+n)) + ": " + title + "\n*Send: Day " + string(rune('0'+n)) + "*\n**Subject Line:** " + subject + "\n**Body:**\n" + body + "\n\n"
}

func TestParse_EmailCounts(t *testing.T) {
	tests := []struct {
		name   string
		blocks int
	}{
		{"none", 0},
		{"one", 1},
		{"four", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			b.WriteString(SectionRule + "\n" + sectionEmails + "\n" + SectionRule + "\n\n")
			for i := 1; i <= tt.blocks; i++ {
				b.WriteString(emailBlock(i, "Title", "Subject "+string(rune('A'+i)), "Line one\n\nLine two "+string(rune('A'+i))))
			}
			b.WriteString(SectionRule + "\n" + sectionSocialCapture + "\n" + SectionRule + "\n")

			emails := Parse(b.String()).Emails
			require.Len(t, emails, tt.blocks)
			for i, e := range emails {
				assert.Equal(t, "Subject "+string(rune('A'+i+1)), e.SubjectLine)
				assert.Equal(t, "Line one\n\nLine two "+string(rune('A'+i+1)), e.Body)
				assert.Equal(t, "Title", e.Title)
			}
		})
	}
}

func TestParse_BenefitsAndPainPointsStaySeparate(t *testing.T) {
	doc := strings.Join([]string{
		HeadingProblem,
		"**Intro:** Sound familiar?",
		"**Pain Points:**",
		"• No time",
		"• No leads",
		"",
		HeadingBenefits,
		"**Section Title:** Inside you get",
		"**Benefits:**",
		"✓ A plan",
		"✓ A template",
		"✓ A checklist",
		"",
	}, "\n")

	lp := Parse(doc).LandingPage
	assert.Equal(t, []string{"No time", "No leads"}, lp.PainPoints)
	assert.Equal(t, []string{"A plan", "A template", "A checklist"}, lp.Benefits)
	assert.Equal(t, "Sound familiar?", lp.ProblemIntro)
	assert.Equal(t, "Inside you get", lp.BenefitsTitle)
	assert.Empty(t, lp.TransformationPoints)
}

func TestParse_LeadMagnetPointsScopedToOutline(t *testing.T) {
	doc := strings.Join([]string{
		"## My Guide",
		"*Format: Guide*",
		"",
		HeadingIntroduction,
		"Welcome.",
		"",
		"### 1. First",
		"Do this.",
		"",
		"### 2. Second",
		"Then this.",
		"",
		HeadingConclusion,
		"Done.",
		"",
		SectionRule,
		sectionLandingPage,
		SectionRule,
		"",
		"### 3. Stray numbered heading",
		"Not part of the outline.",
		"",
	}, "\n")

	lm := Parse(doc).LeadMagnet
	assert.Equal(t, []models.LeadMagnetPoint{
		{Title: "First", Content: "Do this."},
		{Title: "Second", Content: "Then this."},
	}, lm.Points)
	assert.Equal(t, "Welcome.", lm.Intro)
	assert.Equal(t, "Done.", lm.Conclusion)
}

func TestParse_MissingSectionsKeepDefaults(t *testing.T) {
	doc := HeadingHero + "\n**Headline:** Only a headline\n"
	parsed := Parse(doc)

	assert.Equal(t, "Only a headline", parsed.LandingPage.Headline)
	assert.Empty(t, parsed.LandingPage.Subheadline)
	assert.Empty(t, parsed.Emails)
	assert.Empty(t, parsed.LeadMagnetWorkflow.PostCTAs)
	assert.NotNil(t, parsed.SocialCapture.Keywords)
}

func TestParse_CRLFDocument(t *testing.T) {
	doc := strings.ReplaceAll(Generate(sampleAnswers(), "Jordan", "today"), "\n", "\r\n")
	parsed := Parse(doc)
	assert.Len(t, parsed.Emails, 4)
	assert.NotEmpty(t, parsed.LandingPage.Headline)
}
