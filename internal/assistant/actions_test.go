package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designify/internal/listing"
	"designify/internal/render"
)

type fakeRenderer struct {
	createCalls int
	waitCalls   int
	lastUID     string
	lastMods    []render.Modification
	createErr   error
	waitErr     error
	imageURL    string
}

func (f *fakeRenderer) CreateImage(_ context.Context, uid string, mods []render.Modification) (*render.Job, error) {
	f.createCalls++
	f.lastUID = uid
	f.lastMods = append([]render.Modification(nil), mods...)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &render.Job{UID: "job_1", Status: render.JobStatusPending, Self: "http://poll"}, nil
}

func (f *fakeRenderer) WaitForImage(_ context.Context, job *render.Job) (*render.Job, error) {
	f.waitCalls++
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &render.Job{UID: job.UID, Status: render.JobStatusCompleted, ImageURLPNG: f.imageURL}, nil
}

type fakeListings struct {
	record map[string]any
	err    error
	lastID string
}

func (f *fakeListings) FetchByMLSID(_ context.Context, id string) (map[string]any, error) {
	f.lastID = id
	return f.record, f.err
}

type fakeArchiver struct {
	records []DesignRecord
	err     error
}

func (f *fakeArchiver) SaveDesign(_ context.Context, rec DesignRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func lockedSession(t *testing.T) *Session {
	t.Helper()
	sess := NewSession("s1", "")
	sess.Lock()
	t.Cleanup(sess.Unlock)
	return sess
}

func TestHandleDecision_ModifyAccumulatesWithoutRendering(t *testing.T) {
	renderer := &fakeRenderer{}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:        ActionModify,
		TemplateUID:   "tpl_1",
		Modifications: []render.Modification{{Name: "headline", Text: "Just Sold"}},
		ResponseText:  "Got it. What price should I show?",
	})

	assert.Equal(t, "Got it. What price should I show?", reply)
	assert.Zero(t, renderer.createCalls, "MODIFY on a fresh design must not render")
	assert.Equal(t, "tpl_1", sess.Design().TemplateUID)
	mod, ok := sess.Design().Modification("headline")
	require.True(t, ok)
	assert.Equal(t, "Just Sold", mod.Text)
}

func TestHandleDecision_TemplateSwitchRerendersStartedDesign(t *testing.T) {
	renderer := &fakeRenderer{imageURL: "http://img/new.png"}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_old")
	sess.Design().ApplyModifications([]render.Modification{{Name: "headline", Text: "Just Sold"}})

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionModify,
		TemplateUID:  "tpl_new",
		ResponseText: "Switching the style now.",
	})

	assert.Equal(t, 1, renderer.createCalls)
	assert.Equal(t, "tpl_new", renderer.lastUID, "re-render must use the new template")
	require.Len(t, renderer.lastMods, 1)
	assert.Equal(t, "Just Sold", renderer.lastMods[0].Text, "accumulated values carry over")
	assert.Contains(t, reply, ImageMarker+"http://img/new.png)")
}

func TestHandleDecision_SameTemplateDoesNotRerender(t *testing.T) {
	renderer := &fakeRenderer{}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_1")

	h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionModify,
		TemplateUID:  "tpl_1",
		ResponseText: "Noted.",
	})

	assert.Zero(t, renderer.createCalls)
}

func TestHandleDecision_GenerateWithoutTemplateRefuses(t *testing.T) {
	renderer := &fakeRenderer{}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionGenerate,
		ResponseText: "Generating now!",
	})

	assert.Equal(t, replyNoTemplate, reply)
	assert.Zero(t, renderer.createCalls, "refusal must never reach the render service")
}

func TestHandleDecision_GenerateSuccessAppendsImage(t *testing.T) {
	renderer := &fakeRenderer{imageURL: "http://img/out.png"}
	archiver := &fakeArchiver{}
	h := NewHandler(renderer, &fakeListings{}, nil).WithArchiver(archiver)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_1")
	sess.Design().ApplyModifications([]render.Modification{{Name: "headline", Text: "Just Sold"}})

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionGenerate,
		ResponseText: "Here is your design!",
	})

	assert.True(t, strings.HasPrefix(reply, "Here is your design!"), "reply keeps the model's text")
	assert.Contains(t, reply, ImageMarker+"http://img/out.png)")
	require.Len(t, archiver.records, 1)
	assert.Equal(t, "s1", archiver.records[0].SessionID)
	assert.Equal(t, "http://img/out.png", archiver.records[0].ImageURL)
}

func TestHandleDecision_RenderFailureReplacesReply(t *testing.T) {
	renderer := &fakeRenderer{waitErr: render.ErrRenderTimeout}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_1")

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionGenerate,
		ResponseText: "Here is your design!",
	})

	assert.Equal(t, replyRenderError, reply)
	assert.NotContains(t, reply, "Here is your design!")
}

func TestHandleDecision_CreateFailureReplacesReply(t *testing.T) {
	renderer := &fakeRenderer{createErr: errors.New("boom")}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_1")

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionGenerate,
		ResponseText: "Here is your design!",
	})

	assert.Equal(t, replyStartFailed, reply)
	assert.Zero(t, renderer.waitCalls)
}

func TestHandleDecision_ResetReturnsVerbatim(t *testing.T) {
	renderer := &fakeRenderer{}
	h := NewHandler(renderer, &fakeListings{}, nil)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_1")
	sess.Design().ApplyModifications([]render.Modification{{Name: "headline", Text: "x"}})

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionReset,
		ResponseText: "Okay, starting over. What would you like to make?",
	})

	assert.Equal(t, "Okay, starting over. What would you like to make?", reply)
	assert.False(t, sess.Design().Started())
	assert.Empty(t, sess.Design().Modifications)
	assert.Zero(t, renderer.createCalls)
}

func TestHandleDecision_FetchMLSDataMapsListing(t *testing.T) {
	listings := &fakeListings{record: map[string]any{
		"formatted_address": "123 Main St",
		"price_display":     "$500,000",
		"hero":              map[string]any{"large": "http://img/hero.jpg"},
	}}
	h := NewHandler(&fakeRenderer{}, listings, nil)
	sess := lockedSession(t)
	sess.Design().ApplyModifications([]render.Modification{{Name: "leftover", Text: "stale"}})

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionFetchMLSData,
		TemplateUID:  "tpl_sold",
		MLSListingID: "12400539",
		ResponseText: "Looking that up for you.",
	})

	assert.Equal(t, "12400539", listings.lastID)
	assert.Contains(t, reply, "123 Main St")
	assert.Equal(t, "tpl_sold", sess.Design().TemplateUID)

	_, stale := sess.Design().Modification("leftover")
	assert.False(t, stale, "fetch replaces accumulated values wholesale")

	price, ok := sess.Design().Modification("property_price")
	require.True(t, ok)
	assert.Equal(t, "$500,000", price.Text)
	image, ok := sess.Design().Modification("property_image")
	require.True(t, ok)
	assert.Equal(t, "http://img/hero.jpg", image.ImageURL)
}

func TestHandleDecision_FetchMLSDataRequiresBothIDs(t *testing.T) {
	listings := &fakeListings{}
	h := NewHandler(&fakeRenderer{}, listings, nil)
	sess := lockedSession(t)

	for _, d := range []*Decision{
		{Action: ActionFetchMLSData, TemplateUID: "tpl_1", ResponseText: "r"},
		{Action: ActionFetchMLSData, MLSListingID: "123", ResponseText: "r"},
	} {
		reply := h.HandleDecision(context.Background(), sess, d)
		assert.Equal(t, replyNeedBothIDs, reply)
	}
	assert.Empty(t, listings.lastID, "lookup must not run with ids missing")
}

func TestHandleDecision_FetchMLSDataLookupFailure(t *testing.T) {
	listings := &fakeListings{err: listing.ErrNotFound}
	h := NewHandler(&fakeRenderer{}, listings, nil)
	sess := lockedSession(t)

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionFetchMLSData,
		TemplateUID:  "tpl_1",
		MLSListingID: "999",
		ResponseText: "Looking that up.",
	})

	assert.Contains(t, reply, "999")
	assert.Contains(t, reply, "double-check")
	assert.False(t, sess.Design().Started(), "failed lookup must not touch the design")
}

func TestHandleDecision_ArchiveFailureDoesNotChangeReply(t *testing.T) {
	renderer := &fakeRenderer{imageURL: "http://img/out.png"}
	archiver := &fakeArchiver{err: errors.New("bucket down")}
	h := NewHandler(renderer, &fakeListings{}, nil).WithArchiver(archiver)
	sess := lockedSession(t)
	sess.Design().SetTemplate("tpl_1")

	reply := h.HandleDecision(context.Background(), sess, &Decision{
		Action:       ActionGenerate,
		ResponseText: "Done!",
	})

	assert.Contains(t, reply, ImageMarker)
}
