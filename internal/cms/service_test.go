// AngelaMos | 2026
// service_test.go

package cms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, nil)
}

func TestSetContent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.SetContent(ctx, "hero.title", ContentInput{
		Value:   String("Nau mai"),
		Section: "home",
	}, "editor@example.com")
	require.NoError(t, err)
	assert.Equal(t, KindString, c.Type)
	assert.Equal(t, "editor@example.com", c.Metadata.UpdatedBy)
	assert.False(t, c.Metadata.LastUpdated.IsZero())

	got, err := svc.GetContent(ctx, "hero.title")
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(String("Nau mai")))
	assert.Equal(t, "home", got.Metadata.Section)
}

func TestSetContentReplacesValueKeepsMetadata(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetContent(ctx, "footer", ContentInput{
		Value:     Record(map[string]Value{"left": String("a"), "right": String("b")}),
		Section:   "layout",
		Component: "footer",
	}, "one")
	require.NoError(t, err)

	_, err = svc.SetContent(ctx, "footer", ContentInput{
		Value: Record(map[string]Value{"left": String("c")}),
	}, "two")
	require.NoError(t, err)

	got, err := svc.GetContent(ctx, "footer")
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(Record(map[string]Value{"left": String("c")})))
	assert.Equal(t, "layout", got.Metadata.Section)
	assert.Equal(t, "footer", got.Metadata.Component)
	assert.Equal(t, "two", got.Metadata.UpdatedBy)
}

func TestSetContentValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetContent(ctx, "k", ContentInput{Type: KindNumber, Value: String("x")}, "e")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = svc.SetContent(ctx, "k", ContentInput{}, "e")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = svc.SetContent(ctx, "a/b", ContentInput{Value: Bool(true)}, "e")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = svc.SetContent(ctx, "", ContentInput{Value: Bool(true)}, "e")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestListAndDeleteContent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, key := range []string{"b", "a", "c"} {
		section := "home"
		if key == "c" {
			section = "about"
		}
		_, err := svc.SetContent(ctx, key, ContentInput{Value: String(key), Section: section}, "e")
		require.NoError(t, err)
	}

	all, err := svc.ListContent(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Key)

	home, err := svc.ListContent(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, home, 2)

	require.NoError(t, svc.DeleteContent(ctx, "a", "e"))
	require.NoError(t, svc.DeleteContent(ctx, "a", "e"))
	_, err = svc.GetContent(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSettings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetSetting(ctx, "maintenance", Bool(false), "e")
	require.NoError(t, err)
	_, err = svc.SetSetting(ctx, "maintenance", Bool(true), "e")
	require.NoError(t, err)

	st, err := svc.GetSetting(ctx, "maintenance")
	require.NoError(t, err)
	assert.True(t, st.Value.Equal(Bool(true)))

	all, err := svc.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCheckStyle(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name    string
		key     string
		value   Value
		wantErr bool
	}{
		{"hex colour", "backgroundColor", String("#1a2b3c"), false},
		{"short hex", "textColor", String("#fff"), false},
		{"named colour", "textColor", String("red"), true},
		{"number for colour", "borderColor", Number(3), true},
		{"in range", "padding", Number(24), false},
		{"upper bound", "maxWidth", Number(10000), false},
		{"negative", "margin", Number(-1), true},
		{"too large", "width", Number(10001), true},
		{"plain string", "fontFamily", String("serif"), false},
		{"record", "shadow", Record(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckStyle(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStyle)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdateLayoutMerges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateLayout(ctx, "header", LayoutPatch{
		Styles:     map[string]Value{"backgroundColor": String("#000000"), "height": Number(80)},
		Visibility: map[string]bool{"logo": true},
	}, "e")
	require.NoError(t, err)

	l, err := svc.UpdateLayout(ctx, "header", LayoutPatch{
		Styles: map[string]Value{"height": Number(64)},
	}, "f")
	require.NoError(t, err)

	assert.True(t, l.Styles["backgroundColor"].Equal(String("#000000")))
	assert.True(t, l.Styles["height"].Equal(Number(64)))
	assert.True(t, l.Visibility["logo"])
	assert.Equal(t, "f", l.UpdatedBy)

	_, err = svc.UpdateLayout(ctx, "header", LayoutPatch{
		Styles: map[string]Value{"textColor": String("blue")},
	}, "f")
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func TestWatchLayouts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got := make(chan []Layout, 8)
	unsubscribe, err := svc.WatchLayouts(ctx, func(ls []Layout) { got <- ls })
	require.NoError(t, err)
	defer unsubscribe()

	first := <-got
	assert.Empty(t, first)

	_, err = svc.UpdateLayout(ctx, "nav", LayoutPatch{Visibility: map[string]bool{"search": false}}, "e")
	require.NoError(t, err)

	select {
	case ls := <-got:
		require.Len(t, ls, 1)
		assert.Equal(t, "nav", ls[0].Component)
	case <-time.After(time.Second):
		t.Fatal("no layout snapshot after update")
	}
}
