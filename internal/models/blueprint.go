// internal/models/blueprint.go
package models

// BlueprintContent is the structured form of a funnel blueprint before it is
// rendered to the text document. The template generator and the LLM
// generator both produce this shape.
type BlueprintContent struct {
	AuthorName string `json:"author_name"`
	Date       string `json:"date"`

	LeadMagnet    LeadMagnetContent    `json:"lead_magnet"`
	LandingPage   LandingPageContent   `json:"landing_page"`
	Emails        []Email              `json:"emails"`
	SocialCapture SocialCaptureContent `json:"social_capture"`
}

// LeadMagnetContent 引流资料大纲
type LeadMagnetContent struct {
	Title      string            `json:"title"`
	Format     string            `json:"format"`
	Intro      string            `json:"intro"`
	Points     []LeadMagnetPoint `json:"points"`
	Conclusion string            `json:"conclusion"`
	CTA        string            `json:"cta"`
}

// LandingPageContent 落地页文案
type LandingPageContent struct {
	Headline      string `json:"headline"`
	Subheadline   string `json:"subheadline"`
	CTAButtonText string `json:"cta_button_text"`

	ProblemIntro string   `json:"problem_intro"`
	PainPoints   []string `json:"pain_points"`

	TransformationIntro  string   `json:"transformation_intro"`
	TransformationPoints []string `json:"transformation_points"`

	BenefitsTitle string   `json:"benefits_title"`
	Benefits      []string `json:"benefits"`

	AboutHeadline    string `json:"about_headline"`
	AboutSubheadline string `json:"about_subheadline"`
	AboutBio         string `json:"about_bio"`

	FinalCTAHeadline   string `json:"final_cta_headline"`
	FinalCTAButtonText string `json:"final_cta_button_text"`
	BelowFormText      string `json:"below_form_text"`
}

// SocialCaptureContent 社交引流模板
type SocialCaptureContent struct {
	DMMessage           string    `json:"dm_message"`
	LeadMagnetDMMessage string    `json:"lead_magnet_dm_message,omitempty"`
	PostCTAs            []PostCTA `json:"post_ctas"`
	Keywords            []string  `json:"keywords"`
	CommentReplies      []string  `json:"comment_replies"`
}
