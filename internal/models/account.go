// internal/models/account.go
package models

import "time"

// ProgressFlag names a single completion boolean on the account record.
type ProgressFlag string

const (
	FlagProfileComplete         ProgressFlag = "profile_complete"
	FlagBusinessContextComplete ProgressFlag = "business_context_complete"
	FlagAssistantTrained        ProgressFlag = "assistant_trained"
	FlagKnowledgeBaseUploaded   ProgressFlag = "knowledge_base_uploaded"
	FlagFunnelCraftComplete     ProgressFlag = "funnel_craft_complete"
	FlagLandingPageBuilt        ProgressFlag = "landing_page_built"
	FlagEmailSequenceBuilt      ProgressFlag = "email_sequence_built"
	FlagSocialCaptureBuilt      ProgressFlag = "social_capture_built"
	FlagRemindersConfigured     ProgressFlag = "reminders_configured"
)

// ProgressFlags 账户在各阶段的完成标记
type ProgressFlags struct {
	ProfileComplete         bool `json:"profile_complete"`
	BusinessContextComplete bool `json:"business_context_complete"`
	AssistantTrained        bool `json:"assistant_trained"`
	KnowledgeBaseUploaded   bool `json:"knowledge_base_uploaded"`
	FunnelCraftComplete     bool `json:"funnel_craft_complete"`
	LandingPageBuilt        bool `json:"landing_page_built"`
	EmailSequenceBuilt      bool `json:"email_sequence_built"`
	SocialCaptureBuilt      bool `json:"social_capture_built"`
	RemindersConfigured     bool `json:"reminders_configured"`
}

// Get reports the value of a named flag. ok is false for unknown names.
func (f ProgressFlags) Get(flag ProgressFlag) (value bool, ok bool) {
	ptr := f.ref(flag)
	if ptr == nil {
		return false, false
	}
	return *ptr, true
}

// Set writes a named flag. It returns false for unknown names.
func (f *ProgressFlags) Set(flag ProgressFlag, value bool) bool {
	ptr := f.ref(flag)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

func (f *ProgressFlags) ref(flag ProgressFlag) *bool {
	switch flag {
	case FlagProfileComplete:
		return &f.ProfileComplete
	case FlagBusinessContextComplete:
		return &f.BusinessContextComplete
	case FlagAssistantTrained:
		return &f.AssistantTrained
	case FlagKnowledgeBaseUploaded:
		return &f.KnowledgeBaseUploaded
	case FlagFunnelCraftComplete:
		return &f.FunnelCraftComplete
	case FlagLandingPageBuilt:
		return &f.LandingPageBuilt
	case FlagEmailSequenceBuilt:
		return &f.EmailSequenceBuilt
	case FlagSocialCaptureBuilt:
		return &f.SocialCaptureBuilt
	case FlagRemindersConfigured:
		return &f.RemindersConfigured
	default:
		return nil
	}
}

// KnowledgeDoc 上传到助手知识库的文档
type KnowledgeDoc struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PhaseRecord is the per-account progress record. The blueprint document is
// overwritten wholesale on every save.
type PhaseRecord struct {
	AccountID        string         `json:"account_id"`
	AuthorName       string         `json:"author_name,omitempty"`
	FunnelBlueprint  string         `json:"funnel_blueprint"`
	ContentGenerated bool           `json:"content_generated"`
	CraftAnswers     []string       `json:"craft_answers,omitempty"`
	BusinessContext  string         `json:"business_context,omitempty"`
	KnowledgeDocs    []KnowledgeDoc `json:"knowledge_docs,omitempty"`
	Flags            ProgressFlags  `json:"flags"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewPhaseRecord returns an empty record for the account.
func NewPhaseRecord(accountID string) *PhaseRecord {
	return &PhaseRecord{AccountID: accountID}
}
