// internal/funnel/render.go
package funnel

import (
	"fmt"
	"strings"

	"github.com/Corphon/FunnelCraft/internal/models"
)

var keepOrDeleteGuide = []string{
	"Hero Section: KEEP (required)",
	"Does This Sound Like You: KEEP (builds connection)",
	"Imagine 90 Days From Now: KEEP if you have space",
	"What You'll Get: KEEP (required)",
	"About Me: OPTIONAL for short pages",
	"Final CTA: KEEP (required)",
}

var nextStepsChecklist = []string{
	"Create your lead magnet using the outline in Section 1",
	"Build your landing page with the copy in Section 2",
	"Load the email sequence into your email platform",
	"Post your first social capture CTA and reply to every comment",
}

// Render lays the blueprint out as the fixed-format document read back by
// Parse. Single-line fields are whitespace-collapsed on the way out.
func Render(c *models.BlueprintContent) string {
	if c == nil {
		c = &models.BlueprintContent{}
	}
	w := &docWriter{}

	w.line("# YOUR FUNNEL BLUEPRINT")
	w.line(fmt.Sprintf("*Created for %s | %s*", oneLine(c.AuthorName), oneLine(c.Date)))
	w.blank()

	renderLeadMagnet(w, &c.LeadMagnet)
	renderLandingPage(w, &c.LandingPage)
	renderEmails(w, c.Emails)
	renderSocialCapture(w, &c.SocialCapture)

	w.section(sectionNextSteps)
	for _, item := range nextStepsChecklist {
		w.line(ChecklistGlyph + item)
	}
	return w.String()
}

func renderLeadMagnet(w *docWriter, lm *models.LeadMagnetContent) {
	w.section(sectionLeadMagnet)
	w.line("## " + oneLine(lm.Title))
	w.line("*Format: " + oneLine(lm.Format) + "*")
	w.blank()

	w.line(HeadingIntroduction)
	w.text(lm.Intro)
	w.blank()

	for i, p := range lm.Points {
		w.line(fmt.Sprintf("### %d. %s", i+1, oneLine(p.Title)))
		w.text(p.Content)
		w.blank()
	}

	w.line(HeadingConclusion)
	w.text(lm.Conclusion)
	if lm.CTA != "" {
		w.blank()
		w.text(lm.CTA)
	}
	w.blank()
}

func renderLandingPage(w *docWriter, lp *models.LandingPageContent) {
	w.section(sectionLandingPage)

	w.line(HeadingHero)
	w.field(LabelHeadline, lp.Headline)
	w.field(LabelSubheadline, lp.Subheadline)
	w.field(LabelCTAButton, lp.CTAButtonText)
	w.blank()

	w.line(HeadingProblem)
	w.field(LabelIntro, lp.ProblemIntro)
	w.list(LabelPainPoints, BulletGlyph, lp.PainPoints)
	w.blank()

	w.line(HeadingTransformation)
	w.field(LabelIntro, lp.TransformationIntro)
	w.list(LabelTransformationPoint, BulletGlyph, lp.TransformationPoints)
	w.blank()

	w.line(HeadingBenefits)
	w.field(LabelSectionTitle, lp.BenefitsTitle)
	w.list(LabelBenefits, CheckGlyph, lp.Benefits)
	w.blank()

	w.line(HeadingAbout)
	w.field(LabelHeadline, lp.AboutHeadline)
	w.field(LabelSubheadline, lp.AboutSubheadline)
	w.block(LabelBio, lp.AboutBio)
	w.blank()

	w.line(HeadingFinalCTA)
	w.field(LabelHeadline, lp.FinalCTAHeadline)
	w.field(LabelCTAButton, lp.FinalCTAButtonText)
	w.field(LabelBelowForm, lp.BelowFormText)
	w.blank()

	w.line(HeadingKeepOrDelete)
	for _, g := range keepOrDeleteGuide {
		w.line(BulletGlyph + g)
	}
	w.blank()
}

func renderEmails(w *docWriter, emails []models.Email) {
	w.section(sectionEmails)
	for i, e := range emails {
		w.line(fmt.Sprintf("%s %d: %s", HeadingEmailPrefix, i+1, oneLine(e.Title)))
		w.line("*Send: " + oneLine(e.Day) + "*")
		w.field(LabelSubjectLine, e.SubjectLine)
		w.block(LabelBody, e.Body)
		w.blank()
	}
}

func renderSocialCapture(w *docWriter, sc *models.SocialCaptureContent) {
	w.section(sectionSocialCapture)

	w.line(HeadingDMTemplate)
	w.block(LabelMessage, sc.DMMessage)
	w.blank()

	if strings.TrimSpace(sc.LeadMagnetDMMessage) != "" {
		w.line(HeadingLeadMagnetDM)
		w.block(LabelMessage, sc.LeadMagnetDMMessage)
		w.blank()
	}

	w.line(HeadingPostCTAs)
	for i, p := range sc.PostCTAs {
		w.line(fmt.Sprintf("**%d. %s:**", i+1, oneLine(p.Hook)))
		w.text(p.Content)
		w.blank()
	}

	w.line(HeadingKeywords)
	for _, k := range sc.Keywords {
		w.line(BulletGlyph + oneLine(k))
	}
	w.blank()

	w.line(HeadingCommentReplies)
	for _, r := range sc.CommentReplies {
		w.line(BulletGlyph + oneLine(r))
	}
	w.blank()
}

type docWriter struct {
	strings.Builder
}

func (w *docWriter) line(s string) {
	w.WriteString(s)
	w.WriteByte('\n')
}

func (w *docWriter) blank() {
	w.WriteByte('\n')
}

// text writes a free-text body, trimmed of surrounding blank lines.
func (w *docWriter) text(s string) {
	w.line(strings.TrimSpace(s))
}

func (w *docWriter) section(title string) {
	w.line(SectionRule)
	w.line(title)
	w.line(SectionRule)
	w.blank()
}

func (w *docWriter) field(name, value string) {
	w.line(label(name) + " " + oneLine(value))
}

func (w *docWriter) block(name, value string) {
	w.line(label(name))
	w.text(value)
}

func (w *docWriter) list(name, glyph string, items []string) {
	w.line(label(name))
	for _, it := range items {
		w.line(glyph + oneLine(it))
	}
}
