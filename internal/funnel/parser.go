// internal/funnel/parser.go
package funnel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

var (
	// boundaryPattern marks the end of a "## " heading window: the next
	// top-level or second-level heading, or a section rule.
	boundaryPattern = regexp.MustCompile(`(?m)^(?:#{1,2} |` + ruleGlyph + `)`)
	// subBoundaryPattern also stops at "### " sub-headings.
	subBoundaryPattern = regexp.MustCompile(`(?m)^(?:#{1,3} |` + ruleGlyph + `)`)
	rulePattern        = regexp.MustCompile(`(?m)^` + ruleGlyph)
	labelLinePattern   = regexp.MustCompile(`(?m)^\*\*[^*\n]+:\*\*`)

	// postCTALabelPattern matches "**1. Any Hook:**" (group 1) or one of the
	// canonical hooks without a number (group 2).
	postCTALabelPattern = regexp.MustCompile(`(?m)^\*\*(?:\d+\.\s*([^*\n]+?)|(` + strings.Join(quoteAll(PostCTAHooks), "|") + `)):\*\*[ \t]*`)

	leadMagnetHeaderPattern = regexp.MustCompile(`(?m)^## (.*)\n\*Format: (.*)\*[ \t]*$`)
	numberedPointPattern    = regexp.MustCompile(`(?m)^### (\d+)\. (.*)$`)
	emailHeadingPattern     = regexp.MustCompile(`(?m)^## EMAIL (\d+): (.*)$`)
	sendLinePattern         = regexp.MustCompile(`(?m)^\*Send: (.*)\*[ \t]*$`)
)

// workflowCTAKeyword is the comment trigger used by the synthesized
// lead-magnet workflow posts.
const workflowCTAKeyword = "SEND"

type extractor struct {
	name string
	run  func(doc string, c *models.EditableContent)
}

// Extractors are independent: each reads the whole document and writes only
// its own fields, so one bad section leaves the others intact.
var extractors = []extractor{
	{"hero", extractHero},
	{"problem", extractProblem},
	{"transformation", extractTransformation},
	{"benefits", extractBenefits},
	{"about", extractAbout},
	{"final_cta", extractFinalCTA},
	{"lead_magnet", extractLeadMagnet},
	{"lead_magnet_points", extractLeadMagnetPoints},
	{"conclusion", extractConclusion},
	{"emails", extractEmails},
	{"social_dm", extractSocialDM},
	{"post_ctas", extractPostCTAs},
	{"keywords", extractKeywords},
	{"comment_replies", extractCommentReplies},
}

// Parse extracts the editable content model from a blueprint document.
// Anything it cannot find keeps its empty default. It never fails.
func Parse(document string) *models.EditableContent {
	content := models.NewEditableContent()
	doc := strings.ReplaceAll(document, "\r\n", "\n")
	if strings.TrimSpace(doc) == "" {
		return content
	}

	for _, ex := range extractors {
		runExtractor(ex, doc, content)
	}
	synthesizeWorkflowCTAs(content)
	return content
}

func runExtractor(ex extractor, doc string, c *models.EditableContent) {
	defer func() {
		if r := recover(); r != nil {
			utils.GetLogger().Warn("blueprint section extraction failed", map[string]interface{}{
				"section": ex.name,
				"panic":   fmt.Sprint(r),
			})
		}
	}()
	ex.run(doc, c)
}

// ===== landing page =====

func extractHero(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingHero)
	if !ok {
		return
	}
	headline := labelValue(win, LabelHeadline)
	sub := labelValue(win, LabelSubheadline)
	button := labelValue(win, LabelCTAButton)

	c.LandingPage.Headline = headline
	c.LandingPage.Subheadline = sub
	c.LandingPage.CTAButtonText = button
}

func extractProblem(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingProblem)
	if !ok {
		return
	}
	intro := labelValue(win, LabelIntro)
	points := glyphList(win, LabelPainPoints, BulletGlyph)

	c.LandingPage.ProblemIntro = intro
	c.LandingPage.PainPoints = points
}

func extractTransformation(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingTransformation)
	if !ok {
		return
	}
	intro := labelValue(win, LabelIntro)
	points := glyphList(win, LabelTransformationPoint, BulletGlyph)

	c.LandingPage.TransformationIntro = intro
	c.LandingPage.TransformationPoints = points
}

func extractBenefits(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingBenefits)
	if !ok {
		return
	}
	title := labelValue(win, LabelSectionTitle)
	benefits := glyphList(win, LabelBenefits, CheckGlyph)

	c.LandingPage.BenefitsTitle = title
	c.LandingPage.Benefits = benefits
}

func extractAbout(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingAbout)
	if !ok {
		return
	}
	headline := labelValue(win, LabelHeadline)
	sub := labelValue(win, LabelSubheadline)
	// Bio 是窗口中最后一个字段, 其中可能包含自己的加粗标签行
	bio := labelTail(win, LabelBio)

	c.LandingPage.AboutHeadline = headline
	c.LandingPage.AboutSubheadline = sub
	c.LandingPage.AboutBio = bio
}

func extractFinalCTA(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingFinalCTA)
	if !ok {
		return
	}
	headline := labelValue(win, LabelHeadline)
	button := labelValue(win, LabelCTAButton)
	below := labelValue(win, LabelBelowForm)

	c.LandingPage.FinalCTAHeadline = headline
	c.LandingPage.FinalCTAButtonText = button
	c.LandingPage.BelowFormText = below
}

// ===== lead magnet =====

func extractLeadMagnet(doc string, c *models.EditableContent) {
	m := leadMagnetHeaderPattern.FindStringSubmatchIndex(doc)
	if m == nil {
		return
	}
	title := strings.TrimSpace(doc[m[2]:m[3]])
	format := strings.TrimSpace(doc[m[4]:m[5]])

	var intro string
	if win, ok := windowAfter(doc[m[1]:], HeadingIntroduction, subBoundaryPattern); ok {
		intro = strings.TrimSpace(win)
	}

	c.LeadMagnet.Title = title
	c.LeadMagnet.Format = format
	c.LeadMagnet.Intro = intro
}

// extractLeadMagnetPoints collects "### n. title" sub-headings between the
// lead magnet header and its conclusion. Without a header the whole document
// is searched.
func extractLeadMagnetPoints(doc string, c *models.EditableContent) {
	win := leadMagnetPointsWindow(doc)
	matches := numberedPointPattern.FindAllStringSubmatchIndex(win, -1)
	if len(matches) == 0 {
		return
	}

	points := make([]models.LeadMagnetPoint, 0, len(matches))
	for _, m := range matches {
		body := win[m[1]:]
		if loc := subBoundaryPattern.FindStringIndex(body); loc != nil {
			body = body[:loc[0]]
		}
		points = append(points, models.LeadMagnetPoint{
			Title:   strings.TrimSpace(win[m[4]:m[5]]),
			Content: strings.TrimSpace(body),
		})
	}
	c.LeadMagnet.Points = points
}

func leadMagnetPointsWindow(doc string) string {
	m := leadMagnetHeaderPattern.FindStringIndex(doc)
	if m == nil {
		return doc
	}
	win := doc[m[1]:]
	if i := indexLine(win, HeadingConclusion); i >= 0 {
		return win[:i]
	}
	if loc := rulePattern.FindStringIndex(win); loc != nil {
		return win[:loc[0]]
	}
	return win
}

func extractConclusion(doc string, c *models.EditableContent) {
	win, ok := windowAfter(doc, HeadingConclusion, rulePattern)
	if !ok {
		return
	}
	c.LeadMagnet.Conclusion = strings.TrimSpace(win)
}

// ===== emails =====

func extractEmails(doc string, c *models.EditableContent) {
	matches := emailHeadingPattern.FindAllStringSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return
	}

	emails := make([]models.Email, 0, len(matches))
	for i, m := range matches {
		end := len(doc)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		block := doc[m[1]:end]
		if loc := rulePattern.FindStringIndex(block); loc != nil {
			block = block[:loc[0]]
		}

		e := models.Email{Title: strings.TrimSpace(doc[m[4]:m[5]])}
		if s := sendLinePattern.FindStringSubmatch(block); s != nil {
			e.Day = strings.TrimSpace(s[1])
		}
		e.SubjectLine = labelValue(block, LabelSubjectLine)
		e.Body = labelTail(block, LabelBody)
		emails = append(emails, e)
	}
	c.Emails = emails
}

// ===== social capture =====

func extractSocialDM(doc string, c *models.EditableContent) {
	dm := dmMessage(doc, HeadingDMTemplate)
	lmDM := dmMessage(doc, HeadingLeadMagnetDM)
	if lmDM == "" {
		lmDM = dm
	}
	c.SocialCapture.DMMessage = dm
	c.LeadMagnetWorkflow.DMMessage = lmDM
}

func dmMessage(doc, heading string) string {
	win, ok := headingWindow(doc, heading)
	if !ok {
		return ""
	}
	if labelIndex(win, LabelMessage) >= 0 {
		return labelTail(win, LabelMessage)
	}
	return strings.TrimSpace(win)
}

// extractPostCTAs reads every "**n. hook:**" sub-block of the post CTA
// window, whatever the hook text. Unnumbered canonical hook labels are also
// accepted.
func extractPostCTAs(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingPostCTAs)
	if !ok {
		return
	}
	matches := postCTALabelPattern.FindAllStringSubmatchIndex(win, -1)
	ctas := make([]models.PostCTA, 0, len(matches))
	for _, m := range matches {
		var hook string
		if m[2] >= 0 {
			hook = strings.TrimSpace(win[m[2]:m[3]])
		} else {
			hook = win[m[4]:m[5]]
		}
		body := win[m[1]:]
		if next := postCTALabelPattern.FindStringIndex(body); next != nil {
			body = body[:next[0]]
		}
		ctas = append(ctas, models.PostCTA{Hook: hook, Content: strings.TrimSpace(body)})
	}
	c.SocialCapture.PostCTAs = ctas
}

func extractKeywords(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingKeywords)
	if !ok {
		return
	}
	c.SocialCapture.Keywords = glyphLines(win, BulletGlyph)
}

func extractCommentReplies(doc string, c *models.EditableContent) {
	win, ok := headingWindow(doc, HeadingCommentReplies)
	if !ok {
		return
	}
	c.SocialCapture.CommentReplies = glyphLines(win, BulletGlyph)
}

// synthesizeWorkflowCTAs writes the two lead-magnet workflow posts from the
// parsed title and format. They are never read from the document.
func synthesizeWorkflowCTAs(c *models.EditableContent) {
	title := c.LeadMagnet.Title
	if title == "" {
		return
	}
	format := strings.ToLower(c.LeadMagnet.Format)
	if format == "" {
		format = "guide"
	}
	c.LeadMagnetWorkflow.PostCTAs = []string{
		fmt.Sprintf("Comment \"%s\" and I'll DM you my free %s: %s", workflowCTAKeyword, format, title),
		fmt.Sprintf("I just put together a free %s called \"%s\". Want a copy? Drop a comment below and I'll send it over.", format, title),
	}
}

// ===== window helpers =====

// indexLine returns the offset of the first line equal to heading (trailing
// blanks ignored), or -1.
func indexLine(doc, heading string) int {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(heading) + `[ \t]*$`)
	loc := re.FindStringIndex(doc)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// windowAfter returns the text following the heading line up to the first
// match of stop, or the end of doc.
func windowAfter(doc, heading string, stop *regexp.Regexp) (string, bool) {
	i := indexLine(doc, heading)
	if i < 0 {
		return "", false
	}
	rest := doc[i+len(heading):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = ""
	}
	if loc := stop.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return rest, true
}

// headingWindow is the body of a "## " heading up to the next heading of the
// same or higher level, or a section rule.
func headingWindow(doc, heading string) (string, bool) {
	return windowAfter(doc, heading, boundaryPattern)
}

func labelIndex(win, name string) int {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label(name)))
	loc := re.FindStringIndex(win)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// labelValue reads a single-line "**Label:** value" field.
func labelValue(win, name string) string {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label(name)) + `[ \t]*(.*)$`)
	if m := re.FindStringSubmatch(win); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// labelTail reads everything after the label to the end of the window.
func labelTail(win, name string) string {
	i := labelIndex(win, name)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(win[i+len(label(name)):])
}

// glyphList collects the glyph-prefixed lines that follow a list label,
// stopping at the next label.
func glyphList(win, name, glyph string) []string {
	i := labelIndex(win, name)
	if i < 0 {
		return []string{}
	}
	body := win[i+len(label(name)):]
	if next := labelLinePattern.FindStringIndex(body); next != nil {
		body = body[:next[0]]
	}
	return glyphLines(body, glyph)
}

func quoteAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = regexp.QuoteMeta(s)
	}
	return out
}

func glyphLines(text, glyph string) []string {
	items := []string{}
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if rest, ok := strings.CutPrefix(ln, strings.TrimSpace(glyph)); ok {
			if item := strings.TrimSpace(rest); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}
