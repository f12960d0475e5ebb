package funnel

import (
	"strings"
	"testing"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedSample(t *testing.T) *models.EditableContent {
	t.Helper()
	c := Parse(Generate(sampleAnswers(), "Jordan Lee", "January 2, 2026"))
	require.NotEmpty(t, c.SocialCapture.Keywords)
	return c
}

func TestAddArrayItem_KeywordsLeavesOtherNamespacesUntouched(t *testing.T) {
	before := parsedSample(t)
	snapshot := before.Clone()

	after, err := AddArrayItem(before, models.NamespaceSocialCapture, "keywords", "BONUS")
	require.NoError(t, err)

	assert.Len(t, after.SocialCapture.Keywords, len(before.SocialCapture.Keywords)+1)
	assert.Equal(t, "BONUS", after.SocialCapture.Keywords[len(after.SocialCapture.Keywords)-1])

	assert.Equal(t, before.LandingPage, after.LandingPage)
	assert.Equal(t, before.LeadMagnet, after.LeadMagnet)
	assert.Equal(t, before.Emails, after.Emails)
	assert.Equal(t, before.LeadMagnetWorkflow, after.LeadMagnetWorkflow)
	assert.Equal(t, before.SocialCapture.DMMessage, after.SocialCapture.DMMessage)
	assert.Equal(t, before.SocialCapture.PostCTAs, after.SocialCapture.PostCTAs)
	assert.Equal(t, before.SocialCapture.CommentReplies, after.SocialCapture.CommentReplies)

	// input untouched
	assert.Equal(t, snapshot, before)
}

func TestAddArrayItem_EveryListField(t *testing.T) {
	fields := []struct {
		ns    models.Namespace
		field string
		size  func(c *models.EditableContent) int
	}{
		{models.NamespaceLandingPage, "painPoints", func(c *models.EditableContent) int { return len(c.LandingPage.PainPoints) }},
		{models.NamespaceLandingPage, "transformationPoints", func(c *models.EditableContent) int { return len(c.LandingPage.TransformationPoints) }},
		{models.NamespaceLandingPage, "benefits", func(c *models.EditableContent) int { return len(c.LandingPage.Benefits) }},
		{models.NamespaceLeadMagnet, "points", func(c *models.EditableContent) int { return len(c.LeadMagnet.Points) }},
		{models.NamespaceEmails, EmailsField, func(c *models.EditableContent) int { return len(c.Emails) }},
		{models.NamespaceSocialCapture, "commentReplies", func(c *models.EditableContent) int { return len(c.SocialCapture.CommentReplies) }},
		{models.NamespaceSocialCapture, "keywords", func(c *models.EditableContent) int { return len(c.SocialCapture.Keywords) }},
		{models.NamespaceSocialCapture, "postCTAs", func(c *models.EditableContent) int { return len(c.SocialCapture.PostCTAs) }},
		{models.NamespaceLeadMagnetWorkflow, "postCTAs", func(c *models.EditableContent) int { return len(c.LeadMagnetWorkflow.PostCTAs) }},
	}

	base := parsedSample(t)
	for _, f := range fields {
		t.Run(string(f.ns)+"."+f.field, func(t *testing.T) {
			next, err := AddArrayItem(base, f.ns, f.field, "new")
			require.NoError(t, err)
			assert.Equal(t, f.size(base)+1, f.size(next))
		})
	}
}

func TestUpdateScalarField(t *testing.T) {
	base := parsedSample(t)

	next, err := UpdateScalarField(base, models.NamespaceLandingPage, "headline", "A Better Headline")
	require.NoError(t, err)
	assert.Equal(t, "A Better Headline", next.LandingPage.Headline)
	assert.NotEqual(t, "A Better Headline", base.LandingPage.Headline)

	next, err = UpdateScalarField(next, models.NamespaceLeadMagnetWorkflow, "dmMessage", "")
	require.NoError(t, err)
	assert.Empty(t, next.LeadMagnetWorkflow.DMMessage)

	_, err = UpdateScalarField(base, models.NamespaceLandingPage, "nope", "x")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = UpdateScalarField(base, models.Namespace("footer"), "headline", "x")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestUpdateArrayItem(t *testing.T) {
	base := parsedSample(t)

	next, err := UpdateArrayItem(base, models.NamespaceLandingPage, "painPoints", 1, "Edited pain")
	require.NoError(t, err)
	assert.Equal(t, "Edited pain", next.LandingPage.PainPoints[1])
	assert.NotEqual(t, "Edited pain", base.LandingPage.PainPoints[1])

	_, err = UpdateArrayItem(base, models.NamespaceLandingPage, "painPoints", 99, "x")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = UpdateArrayItem(base, models.NamespaceLandingPage, "painPoints", -1, "x")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = UpdateArrayItem(base, models.NamespaceLeadMagnet, "points", 0, "x")
	assert.True(t, apperrors.IsValidationError(err), "object lists need UpdateObjectItem")
}

func TestUpdateObjectItem(t *testing.T) {
	base := parsedSample(t)

	next, err := UpdateObjectItem(base, models.NamespaceEmails, EmailsField, 2, "subjectLine", "New subject")
	require.NoError(t, err)
	assert.Equal(t, "New subject", next.Emails[2].SubjectLine)
	assert.Equal(t, base.Emails[2].Body, next.Emails[2].Body)
	assert.NotEqual(t, "New subject", base.Emails[2].SubjectLine)

	next, err = UpdateObjectItem(base, models.NamespaceLeadMagnet, "points", 0, "content", "Rewritten")
	require.NoError(t, err)
	assert.Equal(t, "Rewritten", next.LeadMagnet.Points[0].Content)

	next, err = UpdateObjectItem(base, models.NamespaceSocialCapture, "postCTAs", 1, "hook", "Story Hook")
	require.NoError(t, err)
	assert.Equal(t, "Story Hook", next.SocialCapture.PostCTAs[1].Hook)

	_, err = UpdateObjectItem(base, models.NamespaceEmails, EmailsField, 0, "sender", "x")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = UpdateObjectItem(base, models.NamespaceEmails, EmailsField, 4, "body", "x")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestEditOnNilContentStartsFromDefault(t *testing.T) {
	next, err := AddArrayItem(nil, models.NamespaceLandingPage, "benefits", "First")
	require.NoError(t, err)
	assert.Equal(t, []string{"First"}, next.LandingPage.Benefits)
	assert.NotNil(t, next.Emails)
}

func TestSerializeSection(t *testing.T) {
	c := parsedSample(t)

	out, err := SerializeSection(c, models.NamespaceLandingPage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "LANDING PAGE COPY"))
	assert.Contains(t, out, "Headline: "+c.LandingPage.Headline)
	for _, p := range c.LandingPage.PainPoints {
		assert.Contains(t, out, BulletGlyph+p)
	}
	for _, b := range c.LandingPage.Benefits {
		assert.Contains(t, out, CheckGlyph+b)
	}

	out, err = SerializeSection(c, models.NamespaceEmails)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\nEMAIL "))
	assert.Contains(t, out, "Subject Line: "+c.Emails[0].SubjectLine)

	_, err = SerializeSection(c, models.Namespace("footer"))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestSerializeAll(t *testing.T) {
	c := parsedSample(t)
	out := SerializeAll(c)

	assert.Equal(t, len(models.Namespaces)-1, strings.Count(out, SectionRule))
	idx := []int{
		strings.Index(out, "LEAD MAGNET\n"),
		strings.Index(out, "LANDING PAGE COPY"),
		strings.Index(out, "EMAIL SEQUENCE"),
		strings.Index(out, "SOCIAL CAPTURE"),
		strings.Index(out, "LEAD MAGNET WORKFLOW"),
	}
	for i := 1; i < len(idx); i++ {
		assert.Less(t, idx[i-1], idx[i])
	}

	assert.NotPanics(t, func() { SerializeAll(nil) })
}

func TestComputeProgress(t *testing.T) {
	var flags models.ProgressFlags
	p := ComputeProgress(flags)
	assert.Equal(t, 0, p.Percent)
	require.Len(t, p.Phases, len(Phases))

	flags.Set(models.FlagProfileComplete, true)
	flags.Set(models.FlagFunnelCraftComplete, true)
	flags.Set(models.FlagSocialCaptureBuilt, true)
	p = ComputeProgress(flags)

	assert.Equal(t, "setup", p.Phases[0].Phase)
	assert.Equal(t, 1, p.Phases[0].Completed)
	assert.Equal(t, 25, p.Phases[0].Percent)
	assert.Equal(t, 100, p.Phases[1].Percent)
	assert.Equal(t, 0, p.Phases[2].Percent)
	assert.Equal(t, 33, p.Percent)
	assert.True(t, p.Phases[1].Flags["funnel_craft_complete"])
}
