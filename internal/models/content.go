// internal/models/content.go
package models

// Namespace identifies one top-level part of the editable content model.
type Namespace string

const (
	NamespaceLandingPage        Namespace = "landingPage"
	NamespaceLeadMagnet         Namespace = "leadMagnet"
	NamespaceEmails             Namespace = "emails"
	NamespaceSocialCapture      Namespace = "socialCapture"
	NamespaceLeadMagnetWorkflow Namespace = "leadMagnetWorkflow"
)

// Namespaces lists every namespace in export order.
var Namespaces = []Namespace{
	NamespaceLeadMagnet,
	NamespaceLandingPage,
	NamespaceEmails,
	NamespaceSocialCapture,
	NamespaceLeadMagnetWorkflow,
}

// EditableContent is the user-editable model parsed out of a blueprint
// document. It is never persisted.
type EditableContent struct {
	LandingPage        LandingPageCopy        `json:"landingPage"`
	LeadMagnet         LeadMagnetCopy         `json:"leadMagnet"`
	Emails             []Email                `json:"emails"`
	SocialCapture      SocialCaptureCopy      `json:"socialCapture"`
	LeadMagnetWorkflow LeadMagnetWorkflowCopy `json:"leadMagnetWorkflow"`
}

// LandingPageCopy 落地页可编辑字段
type LandingPageCopy struct {
	Headline             string   `json:"headline"`
	Subheadline          string   `json:"subheadline"`
	CTAButtonText        string   `json:"ctaButtonText"`
	ProblemIntro         string   `json:"problemIntro"`
	PainPoints           []string `json:"painPoints"`
	TransformationIntro  string   `json:"transformationIntro"`
	TransformationPoints []string `json:"transformationPoints"`
	BenefitsTitle        string   `json:"benefitsTitle"`
	Benefits             []string `json:"benefits"`
	AboutHeadline        string   `json:"aboutHeadline"`
	AboutSubheadline     string   `json:"aboutSubheadline"`
	AboutBio             string   `json:"aboutBio"`
	FinalCTAHeadline     string   `json:"finalCtaHeadline"`
	FinalCTAButtonText   string   `json:"finalCtaButtonText"`
	BelowFormText        string   `json:"belowFormText"`
}

// LeadMagnetCopy 引流资料可编辑字段
type LeadMagnetCopy struct {
	Title      string            `json:"title"`
	Format     string            `json:"format"`
	Intro      string            `json:"intro"`
	Points     []LeadMagnetPoint `json:"points"`
	Conclusion string            `json:"conclusion"`
}

// LeadMagnetPoint is one numbered section of the lead magnet.
type LeadMagnetPoint struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Email is one message of the nurture sequence.
type Email struct {
	Title       string `json:"title"`
	Day         string `json:"day"`
	SubjectLine string `json:"subjectLine"`
	Body        string `json:"body"`
}

// SocialCaptureCopy 社交引流可编辑字段
type SocialCaptureCopy struct {
	DMMessage      string    `json:"dmMessage"`
	CommentReplies []string  `json:"commentReplies"`
	Keywords       []string  `json:"keywords"`
	PostCTAs       []PostCTA `json:"postCTAs"`
}

// PostCTA pairs a hook label with the post copy that follows it.
type PostCTA struct {
	Hook    string `json:"hook"`
	Content string `json:"content"`
}

// LeadMagnetWorkflowCopy 引流资料私信流程
type LeadMagnetWorkflowCopy struct {
	DMMessage string   `json:"dmMessage"`
	PostCTAs  []string `json:"postCTAs"`
}

// NewEditableContent returns the all-empty default shape. Arrays are
// non-nil so they encode as [] rather than null.
func NewEditableContent() *EditableContent {
	return &EditableContent{
		LandingPage: LandingPageCopy{
			PainPoints:           []string{},
			TransformationPoints: []string{},
			Benefits:             []string{},
		},
		LeadMagnet: LeadMagnetCopy{
			Points: []LeadMagnetPoint{},
		},
		Emails: []Email{},
		SocialCapture: SocialCaptureCopy{
			CommentReplies: []string{},
			Keywords:       []string{},
			PostCTAs:       []PostCTA{},
		},
		LeadMagnetWorkflow: LeadMagnetWorkflowCopy{
			PostCTAs: []string{},
		},
	}
}

// Clone returns a deep copy; the result shares no slices with c.
func (c *EditableContent) Clone() *EditableContent {
	out := *c
	out.LandingPage.PainPoints = cloneStrings(c.LandingPage.PainPoints)
	out.LandingPage.TransformationPoints = cloneStrings(c.LandingPage.TransformationPoints)
	out.LandingPage.Benefits = cloneStrings(c.LandingPage.Benefits)
	out.LeadMagnet.Points = append([]LeadMagnetPoint{}, c.LeadMagnet.Points...)
	out.Emails = append([]Email{}, c.Emails...)
	out.SocialCapture.CommentReplies = cloneStrings(c.SocialCapture.CommentReplies)
	out.SocialCapture.Keywords = cloneStrings(c.SocialCapture.Keywords)
	out.SocialCapture.PostCTAs = append([]PostCTA{}, c.SocialCapture.PostCTAs...)
	out.LeadMagnetWorkflow.PostCTAs = cloneStrings(c.LeadMagnetWorkflow.PostCTAs)
	return &out
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}
