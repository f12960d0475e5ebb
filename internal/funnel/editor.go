// internal/funnel/editor.go
package funnel

import (
	"fmt"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/models"
)

// EmailsField addresses the email list itself; the emails namespace has no
// other fields.
const EmailsField = "items"

// The editing operations below are copy-on-write: the input model is never
// touched and the result shares no slices with it. Field values are free
// text and are not validated; only the address (namespace, field, index,
// key) is.

// UpdateScalarField replaces one string field.
func UpdateScalarField(c *models.EditableContent, ns models.Namespace, field, value string) (*models.EditableContent, error) {
	next := cloneOrDefault(c)
	ref := scalarRef(next, ns, field)
	if ref == nil {
		return nil, unknownField(ns, field)
	}
	*ref = value
	return next, nil
}

// UpdateArrayItem replaces the item at index of a string list field.
func UpdateArrayItem(c *models.EditableContent, ns models.Namespace, field string, index int, value string) (*models.EditableContent, error) {
	next := cloneOrDefault(c)
	ref := stringListRef(next, ns, field)
	if ref == nil {
		return nil, unknownField(ns, field)
	}
	if index < 0 || index >= len(*ref) {
		return nil, badIndex(ns, field, index, len(*ref))
	}
	(*ref)[index] = value
	return next, nil
}

// UpdateObjectItem sets key on the object at index of an object list field
// (lead magnet points, post CTAs, emails).
func UpdateObjectItem(c *models.EditableContent, ns models.Namespace, field string, index int, key, value string) (*models.EditableContent, error) {
	next := cloneOrDefault(c)
	list := objectListRef(next, ns, field)
	if list == nil {
		return nil, unknownField(ns, field)
	}
	if index < 0 || index >= list.len() {
		return nil, badIndex(ns, field, index, list.len())
	}
	if !list.set(index, key, value) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown key %q for %s.%s", key, ns, field), nil)
	}
	return next, nil
}

// AddArrayItem appends an item to any list field. For object lists the
// default value seeds the item's leading text key (title or hook).
func AddArrayItem(c *models.EditableContent, ns models.Namespace, field, defaultValue string) (*models.EditableContent, error) {
	next := cloneOrDefault(c)
	if ref := stringListRef(next, ns, field); ref != nil {
		*ref = append(*ref, defaultValue)
		return next, nil
	}
	if list := objectListRef(next, ns, field); list != nil {
		list.add(defaultValue)
		return next, nil
	}
	return nil, unknownField(ns, field)
}

func unknownField(ns models.Namespace, field string) error {
	return apperrors.NewValidationError(fmt.Sprintf("unknown field %q in namespace %q", field, ns), nil)
}

func badIndex(ns models.Namespace, field string, index, length int) error {
	return apperrors.NewValidationError(fmt.Sprintf("index %d out of range for %s.%s (len %d)", index, ns, field, length), nil)
}

func scalarRef(c *models.EditableContent, ns models.Namespace, field string) *string {
	switch ns {
	case models.NamespaceLandingPage:
		lp := &c.LandingPage
		switch field {
		case "headline":
			return &lp.Headline
		case "subheadline":
			return &lp.Subheadline
		case "ctaButtonText":
			return &lp.CTAButtonText
		case "problemIntro":
			return &lp.ProblemIntro
		case "transformationIntro":
			return &lp.TransformationIntro
		case "benefitsTitle":
			return &lp.BenefitsTitle
		case "aboutHeadline":
			return &lp.AboutHeadline
		case "aboutSubheadline":
			return &lp.AboutSubheadline
		case "aboutBio":
			return &lp.AboutBio
		case "finalCtaHeadline":
			return &lp.FinalCTAHeadline
		case "finalCtaButtonText":
			return &lp.FinalCTAButtonText
		case "belowFormText":
			return &lp.BelowFormText
		}
	case models.NamespaceLeadMagnet:
		lm := &c.LeadMagnet
		switch field {
		case "title":
			return &lm.Title
		case "format":
			return &lm.Format
		case "intro":
			return &lm.Intro
		case "conclusion":
			return &lm.Conclusion
		}
	case models.NamespaceSocialCapture:
		if field == "dmMessage" {
			return &c.SocialCapture.DMMessage
		}
	case models.NamespaceLeadMagnetWorkflow:
		if field == "dmMessage" {
			return &c.LeadMagnetWorkflow.DMMessage
		}
	}
	return nil
}

func stringListRef(c *models.EditableContent, ns models.Namespace, field string) *[]string {
	switch ns {
	case models.NamespaceLandingPage:
		switch field {
		case "painPoints":
			return &c.LandingPage.PainPoints
		case "transformationPoints":
			return &c.LandingPage.TransformationPoints
		case "benefits":
			return &c.LandingPage.Benefits
		}
	case models.NamespaceSocialCapture:
		switch field {
		case "commentReplies":
			return &c.SocialCapture.CommentReplies
		case "keywords":
			return &c.SocialCapture.Keywords
		}
	case models.NamespaceLeadMagnetWorkflow:
		if field == "postCTAs" {
			return &c.LeadMagnetWorkflow.PostCTAs
		}
	}
	return nil
}

// objectList is the editable view of a list of small records.
type objectList interface {
	len() int
	set(i int, key, value string) bool
	add(seed string)
}

func objectListRef(c *models.EditableContent, ns models.Namespace, field string) objectList {
	switch {
	case ns == models.NamespaceLeadMagnet && field == "points":
		return (*pointList)(&c.LeadMagnet.Points)
	case ns == models.NamespaceSocialCapture && field == "postCTAs":
		return (*postCTAList)(&c.SocialCapture.PostCTAs)
	case ns == models.NamespaceEmails && field == EmailsField:
		return (*emailList)(&c.Emails)
	}
	return nil
}

type pointList []models.LeadMagnetPoint

func (l *pointList) len() int { return len(*l) }

func (l *pointList) add(seed string) { *l = append(*l, models.LeadMagnetPoint{Title: seed}) }

func (l *pointList) set(i int, key, value string) bool {
	p := &(*l)[i]
	switch key {
	case "title":
		p.Title = value
	case "content":
		p.Content = value
	default:
		return false
	}
	return true
}

type postCTAList []models.PostCTA

func (l *postCTAList) len() int { return len(*l) }

func (l *postCTAList) add(seed string) { *l = append(*l, models.PostCTA{Hook: seed}) }

func (l *postCTAList) set(i int, key, value string) bool {
	p := &(*l)[i]
	switch key {
	case "hook":
		p.Hook = value
	case "content":
		p.Content = value
	default:
		return false
	}
	return true
}

type emailList []models.Email

func (l *emailList) len() int { return len(*l) }

func (l *emailList) add(seed string) { *l = append(*l, models.Email{Title: seed}) }

func (l *emailList) set(i int, key, value string) bool {
	e := &(*l)[i]
	switch key {
	case "title":
		e.Title = value
	case "day":
		e.Day = value
	case "subjectLine":
		e.SubjectLine = value
	case "body":
		e.Body = value
	default:
		return false
	}
	return true
}

func cloneOrDefault(c *models.EditableContent) *models.EditableContent {
	if c == nil {
		return models.NewEditableContent()
	}
	return c.Clone()
}
