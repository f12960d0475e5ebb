// internal/funnel/markers.go
package funnel

import "strings"

// The blueprint document is a private wire format shared by Render and
// Parse. Every heading, label and glyph below is load-bearing: changing one
// side without the other breaks parsing of stored documents.

// SectionRule separates the top-level sections of the document.
var SectionRule = strings.Repeat("═", 55)

const (
	ruleGlyph = "═══"

	sectionLeadMagnet    = "SECTION 1: LEAD MAGNET CONTENT"
	sectionLandingPage   = "SECTION 2: LANDING PAGE COPY"
	sectionEmails        = "SECTION 3: EMAIL SEQUENCE"
	sectionSocialCapture = "SECTION 4: LEAD MAGNET SOCIAL CAPTURE"
	sectionNextSteps     = "SECTION 5: NEXT STEPS"
)

// Landing page headings.
const (
	HeadingHero           = "## HERO SECTION"
	HeadingProblem        = "## DOES THIS SOUND LIKE YOU?"
	HeadingTransformation = "## IMAGINE 90 DAYS FROM NOW"
	HeadingBenefits       = "## WHAT YOU'LL GET"
	HeadingAbout          = "## ABOUT ME"
	HeadingFinalCTA       = "## FINAL CTA"
	HeadingKeepOrDelete   = "## SECTIONS TO KEEP OR DELETE"
)

// Lead magnet, email and social capture headings.
const (
	HeadingIntroduction   = "### Introduction"
	HeadingConclusion     = "### Conclusion + Next Step"
	HeadingEmailPrefix    = "## EMAIL"
	HeadingDMTemplate     = "## DM MESSAGE TEMPLATE"
	HeadingLeadMagnetDM   = "## LEAD MAGNET DM"
	HeadingPostCTAs       = "## POST CTA EXAMPLES"
	HeadingKeywords       = "## COMMENT KEYWORDS"
	HeadingCommentReplies = "## COMMENT REPLIES"
)

// Field labels, written as **Label:** in the document.
const (
	LabelHeadline            = "Headline"
	LabelSubheadline         = "Subheadline"
	LabelCTAButton           = "CTA Button Text"
	LabelIntro               = "Intro"
	LabelPainPoints          = "Pain Points"
	LabelTransformationPoint = "Transformation Points"
	LabelSectionTitle        = "Section Title"
	LabelBenefits            = "Benefits"
	LabelBio                 = "Bio"
	LabelBelowForm           = "Below Form Text"
	LabelSubjectLine         = "Subject Line"
	LabelBody                = "Body"
	LabelMessage             = "Message"
)

// Hook labels of the three post CTAs, in document order.
var PostCTAHooks = []string{"Problem-Aware Hook", "Aspiration Hook", "Curiosity Hook"}

const (
	BulletGlyph    = "• "
	CheckGlyph     = "✓ "
	ChecklistGlyph = "☐ "
)

// Send offsets of the four-email sequence.
var EmailSendDays = []string{"Immediately", "Day 2", "Day 4", "Day 7"}

func label(name string) string {
	return "**" + name + ":**"
}
