package annotations

import (
	"context"
	"testing"

	"github.com/pagemark/annotate/backend/internal/apperror"
	"github.com/pagemark/annotate/backend/internal/geometry"
)

func stringPtr(value string) *string {
	return &value
}

func createTestHighlight(t *testing.T, service *HighlightService, page int) Highlight {
	t.Helper()
	highlight, err := service.Create(context.Background(), CreateHighlightRequest{
		DocumentUUID: "doc-uuid-1",
		OwnerID:      "user-1",
		PageNumber:   page,
		Text:         "selected text",
		Rects:        RectList{{X: 10, Y: 20, Width: 100, Height: 15}},
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	return highlight
}

func TestCreateHighlightPersistsDocumentSpaceRects(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())

	created := createTestHighlight(t, service, 3)
	if created.Color != defaultHighlightColor {
		t.Fatalf("expected default color, got %s", created.Color)
	}
	if created.Intensity != 1 {
		t.Fatalf("expected initial intensity 1, got %d", created.Intensity)
	}

	listed, err := service.ListForDocument(context.Background(), "doc-uuid-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one highlight, got %d", len(listed))
	}
	if listed[0].PageNumber != 3 {
		t.Fatalf("unexpected page number: %d", listed[0].PageNumber)
	}
	expected := geometry.DocRect{X: 10, Y: 20, Width: 100, Height: 15}
	if len(listed[0].Rects) != 1 || listed[0].Rects[0] != expected {
		t.Fatalf("unexpected position rects: %+v", listed[0].Rects)
	}
}

func TestCreateHighlightChecksOwnershipBeforeInsert(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())

	_, err := service.Create(context.Background(), CreateHighlightRequest{
		DocumentUUID: "doc-uuid-1",
		OwnerID:      "user-2",
		PageNumber:   1,
		Text:         "text",
		Rects:        RectList{{X: 1, Y: 1, Width: 1, Height: 1}},
	})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not-found for foreign document, got %v", err)
	}

	if _, err := service.ListForDocument(context.Background(), "doc-uuid-1", "user-2"); apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not-found listing a foreign document, got %v", err)
	}
}

func TestCreateHighlightValidation(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())

	testCases := []struct {
		name    string
		request CreateHighlightRequest
	}{
		{
			name: "missing-text",
			request: CreateHighlightRequest{
				DocumentUUID: "doc-uuid-1", OwnerID: "user-1", PageNumber: 1,
				Rects: RectList{{X: 1, Y: 1, Width: 1, Height: 1}},
			},
		},
		{
			name: "missing-position",
			request: CreateHighlightRequest{
				DocumentUUID: "doc-uuid-1", OwnerID: "user-1", PageNumber: 1, Text: "text",
			},
		},
		{
			name: "invalid-page",
			request: CreateHighlightRequest{
				DocumentUUID: "doc-uuid-1", OwnerID: "user-1", PageNumber: 0, Text: "text",
				Rects: RectList{{X: 1, Y: 1, Width: 1, Height: 1}},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), testCase.request)
			if apperror.KindOf(err) != apperror.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListHighlightsOrdersByPageThenCreation(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())

	createTestHighlight(t, service, 5)
	createTestHighlight(t, service, 2)
	createTestHighlight(t, service, 2)

	listed, err := service.ListForDocument(context.Background(), "doc-uuid-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected three highlights, got %d", len(listed))
	}
	if listed[0].PageNumber != 2 || listed[1].PageNumber != 2 || listed[2].PageNumber != 5 {
		t.Fatalf("unexpected order: %d %d %d", listed[0].PageNumber, listed[1].PageNumber, listed[2].PageNumber)
	}
	if listed[0].CreatedAt.After(listed[1].CreatedAt) {
		t.Fatalf("expected creation order within a page")
	}
}

func TestUpdateHighlightIsPartialAndIdempotent(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())
	created := createTestHighlight(t, service, 1)

	updated, err := service.Update(context.Background(), created.ID, "user-1", HighlightPatch{
		Color: stringPtr("rgba(0, 128, 255, 0.4)"),
		Note:  stringPtr("remember this"),
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.Color != "rgba(0, 128, 255, 0.4)" {
		t.Fatalf("unexpected color: %s", updated.Color)
	}
	if updated.Note != "remember this" {
		t.Fatalf("unexpected note: %s", updated.Note)
	}
	if updated.Text != created.Text {
		t.Fatalf("text must not change on a color/note patch")
	}

	again, err := service.Update(context.Background(), created.ID, "user-1", HighlightPatch{
		Color: stringPtr("rgba(0, 128, 255, 0.4)"),
		Note:  stringPtr("remember this"),
	})
	if err != nil {
		t.Fatalf("unexpected repeat update error: %v", err)
	}
	if again.Color != updated.Color || again.Note != updated.Note || again.Text != updated.Text {
		t.Fatalf("repeated identical update changed the representation")
	}
}

func TestUpdateHighlightForeignOwnerIsNotFound(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())
	created := createTestHighlight(t, service, 1)

	_, err := service.Update(context.Background(), created.ID, "user-2", HighlightPatch{Color: stringPtr("#fff")})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not-found for foreign owner, got %v", err)
	}
}

func TestDeleteHighlight(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())
	created := createTestHighlight(t, service, 1)

	if err := service.Delete(context.Background(), created.ID, "user-2"); apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not-found deleting as another user, got %v", err)
	}

	if err := service.Delete(context.Background(), created.ID, "user-1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	if err := service.Delete(context.Background(), created.ID, "user-1"); apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not-found after deletion, got %v", err)
	}
}

func TestBumpIntensityCapsAtMaximum(t *testing.T) {
	service := newTestHighlightService(t, ownedResolver())
	created := createTestHighlight(t, service, 1)

	var latest Highlight
	var err error
	for i := 0; i < MaxIntensity+3; i++ {
		latest, err = service.BumpIntensity(context.Background(), created.ID, "user-1")
		if err != nil {
			t.Fatalf("unexpected bump error: %v", err)
		}
	}
	if latest.Intensity != MaxIntensity {
		t.Fatalf("expected intensity capped at %d, got %d", MaxIntensity, latest.Intensity)
	}
}
