package assistant

import (
	"testing"

	"designify/internal/render"
)

func TestDesignContext_ApplyOverwritesByLayer(t *testing.T) {
	var dc DesignContext
	dc.ApplyModifications([]render.Modification{
		{Name: "headline", Text: "Just Sold"},
		{Name: "property_price", Text: "$500,000"},
	})
	dc.ApplyModifications([]render.Modification{
		{Name: "property_price", Text: "$950,000"},
		{Name: "agent_name", Text: "Pat"},
	})

	if len(dc.Modifications) != 3 {
		t.Fatalf("expected 3 modifications, got %+v", dc.Modifications)
	}
	// Updated layer keeps its original position.
	if dc.Modifications[1].Name != "property_price" || dc.Modifications[1].Text != "$950,000" {
		t.Fatalf("price not overwritten in place: %+v", dc.Modifications[1])
	}
	if dc.Modifications[2].Name != "agent_name" {
		t.Fatalf("new layer not appended: %+v", dc.Modifications)
	}
}

func TestDesignContext_ApplyReplacesWholeValue(t *testing.T) {
	var dc DesignContext
	dc.ApplyModifications([]render.Modification{{Name: "headline", Text: "Just Sold", Color: "#fff"}})
	dc.ApplyModifications([]render.Modification{{Name: "headline", Text: "Open House"}})

	mod, ok := dc.Modification("headline")
	if !ok {
		t.Fatal("headline missing")
	}
	if mod.Color != "" {
		t.Fatalf("stale color survived overwrite: %+v", mod)
	}
}

func TestDesignContext_ResetIsIdempotent(t *testing.T) {
	var dc DesignContext
	dc.SetTemplate("tpl_1")
	dc.ApplyModifications([]render.Modification{{Name: "headline", Text: "x"}})

	dc.Reset()
	dc.Reset()

	if dc.Started() || len(dc.Modifications) != 0 {
		t.Fatalf("reset left state behind: %+v", dc)
	}
}

func TestSession_WindowedHistory(t *testing.T) {
	sess := NewSession("s1", "")
	sess.Lock()
	for i := 0; i < 10; i++ {
		sess.Append(RoleUser, "question")
		sess.Append(RoleAssistant, "answer")
	}
	sess.Append(RoleUser, "generate it")
	sess.Append(RoleAssistant, "Here you go!\n\n"+ImageMarker+"http://img/a.png)")

	window := sess.WindowedHistory(15)
	sess.Unlock()

	if len(window) != 14 {
		t.Fatalf("expected 14 entries (15 minus image turn), got %d", len(window))
	}
	for _, m := range window {
		if m.Role == RoleAssistant && m.Content != "answer" {
			t.Fatalf("image turn leaked into window: %q", m.Content)
		}
	}
	if window[len(window)-1].Content != "generate it" {
		t.Fatalf("window does not end with latest user turn: %+v", window[len(window)-1])
	}
}

func TestSession_GreetingSeedsHistory(t *testing.T) {
	sess := NewSession("s1", "Hello!")
	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleAssistant || msgs[0].Content != "Hello!" {
		t.Fatalf("unexpected seeded history: %+v", msgs)
	}
}

func TestSession_DesignSnapshotIsACopy(t *testing.T) {
	sess := NewSession("s1", "")
	sess.Lock()
	sess.Design().SetTemplate("tpl_1")
	sess.Design().ApplyModifications([]render.Modification{{Name: "headline", Text: "x"}})
	sess.Unlock()

	snap := sess.DesignSnapshot()
	snap.Modifications[0].Text = "mutated"

	sess.Lock()
	mod, _ := sess.Design().Modification("headline")
	sess.Unlock()
	if mod.Text != "x" {
		t.Fatalf("snapshot aliases live state: %+v", mod)
	}
}

func TestSession_TakeStagedImageClears(t *testing.T) {
	sess := NewSession("s1", "")
	sess.StageImage([]byte{1, 2, 3})

	sess.Lock()
	first := sess.TakeStagedImage()
	second := sess.TakeStagedImage()
	sess.Unlock()

	if len(first) != 3 {
		t.Fatalf("staged image lost: %v", first)
	}
	if second != nil {
		t.Fatalf("staged image not cleared: %v", second)
	}
}
