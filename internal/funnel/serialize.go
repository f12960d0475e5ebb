// internal/funnel/serialize.go
package funnel

import (
	"fmt"
	"strings"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/models"
)

// SerializeSection flattens one namespace into labelled plain text for
// copy-paste. The output is not meant to be parsed back.
func SerializeSection(c *models.EditableContent, ns models.Namespace) (string, error) {
	if c == nil {
		c = models.NewEditableContent()
	}
	var b strings.Builder
	switch ns {
	case models.NamespaceLandingPage:
		writeLandingPage(&b, &c.LandingPage)
	case models.NamespaceLeadMagnet:
		writeLeadMagnet(&b, &c.LeadMagnet)
	case models.NamespaceEmails:
		writeEmails(&b, c.Emails)
	case models.NamespaceSocialCapture:
		writeSocialCapture(&b, &c.SocialCapture)
	case models.NamespaceLeadMagnetWorkflow:
		writeWorkflow(&b, &c.LeadMagnetWorkflow)
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown namespace %q", ns), nil)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// SerializeAll joins every section in export order.
func SerializeAll(c *models.EditableContent) string {
	parts := make([]string, 0, len(models.Namespaces))
	for _, ns := range models.Namespaces {
		s, _ := SerializeSection(c, ns)
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n"+SectionRule+"\n\n")
}

func writeLandingPage(b *strings.Builder, lp *models.LandingPageCopy) {
	b.WriteString("LANDING PAGE COPY\n\n")

	b.WriteString("HERO SECTION\n")
	kv(b, LabelHeadline, lp.Headline)
	kv(b, LabelSubheadline, lp.Subheadline)
	kv(b, LabelCTAButton, lp.CTAButtonText)
	b.WriteString("\n")

	b.WriteString("DOES THIS SOUND LIKE YOU?\n")
	kv(b, LabelIntro, lp.ProblemIntro)
	items(b, BulletGlyph, lp.PainPoints)
	b.WriteString("\n")

	b.WriteString("IMAGINE 90 DAYS FROM NOW\n")
	kv(b, LabelIntro, lp.TransformationIntro)
	items(b, BulletGlyph, lp.TransformationPoints)
	b.WriteString("\n")

	b.WriteString("WHAT YOU'LL GET\n")
	kv(b, LabelSectionTitle, lp.BenefitsTitle)
	items(b, CheckGlyph, lp.Benefits)
	b.WriteString("\n")

	b.WriteString("ABOUT ME\n")
	kv(b, LabelHeadline, lp.AboutHeadline)
	kv(b, LabelSubheadline, lp.AboutSubheadline)
	kv(b, LabelBio, lp.AboutBio)
	b.WriteString("\n")

	b.WriteString("FINAL CTA\n")
	kv(b, LabelHeadline, lp.FinalCTAHeadline)
	kv(b, LabelCTAButton, lp.FinalCTAButtonText)
	kv(b, LabelBelowForm, lp.BelowFormText)
}

func writeLeadMagnet(b *strings.Builder, lm *models.LeadMagnetCopy) {
	b.WriteString("LEAD MAGNET\n\n")
	kv(b, "Title", lm.Title)
	kv(b, "Format", lm.Format)
	b.WriteString("\n")
	if lm.Intro != "" {
		b.WriteString("Introduction\n" + lm.Intro + "\n\n")
	}
	for i, p := range lm.Points {
		fmt.Fprintf(b, "%d. %s\n", i+1, p.Title)
		if p.Content != "" {
			b.WriteString(p.Content + "\n")
		}
		b.WriteString("\n")
	}
	if lm.Conclusion != "" {
		b.WriteString("Conclusion\n" + lm.Conclusion + "\n")
	}
}

func writeEmails(b *strings.Builder, emails []models.Email) {
	b.WriteString("EMAIL SEQUENCE\n\n")
	for i, e := range emails {
		fmt.Fprintf(b, "EMAIL %d: %s\n", i+1, e.Title)
		kv(b, "Send", e.Day)
		kv(b, LabelSubjectLine, e.SubjectLine)
		b.WriteString("\n" + e.Body + "\n\n")
	}
}

func writeSocialCapture(b *strings.Builder, sc *models.SocialCaptureCopy) {
	b.WriteString("SOCIAL CAPTURE\n\n")
	b.WriteString("DM MESSAGE\n" + sc.DMMessage + "\n\n")
	if len(sc.PostCTAs) > 0 {
		b.WriteString("POST CTAS\n")
		for i, p := range sc.PostCTAs {
			fmt.Fprintf(b, "%d. %s: %s\n", i+1, p.Hook, p.Content)
		}
		b.WriteString("\n")
	}
	if len(sc.Keywords) > 0 {
		b.WriteString("KEYWORDS\n")
		items(b, BulletGlyph, sc.Keywords)
		b.WriteString("\n")
	}
	if len(sc.CommentReplies) > 0 {
		b.WriteString("COMMENT REPLIES\n")
		items(b, BulletGlyph, sc.CommentReplies)
	}
}

func writeWorkflow(b *strings.Builder, wf *models.LeadMagnetWorkflowCopy) {
	b.WriteString("LEAD MAGNET WORKFLOW\n\n")
	b.WriteString("DM MESSAGE\n" + wf.DMMessage + "\n\n")
	if len(wf.PostCTAs) > 0 {
		b.WriteString("POSTS\n")
		for i, p := range wf.PostCTAs {
			fmt.Fprintf(b, "%d. %s\n", i+1, p)
		}
	}
}

func kv(b *strings.Builder, name, value string) {
	b.WriteString(name + ": " + value + "\n")
}

func items(b *strings.Builder, glyph string, list []string) {
	for _, it := range list {
		b.WriteString(glyph + it + "\n")
	}
}
