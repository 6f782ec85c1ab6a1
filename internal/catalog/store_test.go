package catalog_test

import (
	"context"
	"testing"

	"playmi/internal/catalog"
	"playmi/internal/testsupport"
)

func TestParseContentType(t *testing.T) {
	cases := map[string]struct {
		want catalog.ContentType
		ok   bool
	}{
		"movie":  {catalog.TypeMovie, true},
		" MUSIC": {catalog.TypeMusic, true},
		"Game":   {catalog.TypeGame, true},
		"series": {"", false},
		"":       {"", false},
	}
	for input, tc := range cases {
		got, ok := catalog.ParseContentType(input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseContentType(%q) = %q, %v", input, got, ok)
		}
	}
}

func TestGroupDir(t *testing.T) {
	dirs := map[catalog.ContentType]string{
		catalog.TypeMovie: "movies",
		catalog.TypeMusic: "music",
		catalog.TypeGame:  "games",
	}
	for contentType, want := range dirs {
		if got := contentType.GroupDir(); got != want {
			t.Errorf("%s.GroupDir() = %q, want %q", contentType, got, want)
		}
	}
}

func TestParseAdKind(t *testing.T) {
	kind, ok := catalog.ParseAdKind("Preroll")
	if !ok || kind != catalog.AdPreroll {
		t.Fatalf("ParseAdKind(Preroll) = %q, %v", kind, ok)
	}
	if _, ok := catalog.ParseAdKind("popup"); ok {
		t.Fatal("unknown ad kind should not parse")
	}
}

func TestCompanyRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	inserted, err := store.InsertCompany(ctx, &catalog.Company{
		Name:           "Transportes del Sur",
		LogoPath:       "/assets/logo.png",
		PrimaryColor:   "#112233",
		SecondaryColor: "#445566",
	})
	if err != nil {
		t.Fatalf("InsertCompany failed: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("inserted company has no id")
	}

	got, err := store.Company(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("Company failed: %v", err)
	}
	if got == nil || got.Name != "Transportes del Sur" || got.LogoPath != "/assets/logo.png" {
		t.Errorf("company round trip mismatch: %+v", got)
	}

	missing, err := store.Company(ctx, inserted.ID+100)
	if err != nil {
		t.Fatalf("Company lookup failed: %v", err)
	}
	if missing != nil {
		t.Errorf("unknown company should be nil, got %+v", missing)
	}
}

func TestContentRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	content := testsupport.SeedContent(t, store, cfg, catalog.TypeMovie, "estreno", 2048)
	if content.ID == 0 {
		t.Fatal("inserted content has no id")
	}

	got, err := store.Content(ctx, content.ID)
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	if got == nil || got.Title != "estreno" || got.Type != catalog.TypeMovie || got.SizeBytes != 2048 {
		t.Errorf("content round trip mismatch: %+v", got)
	}

	if _, err := store.InsertContent(ctx, &catalog.Content{Type: "podcast", Title: "x", Path: "/x"}); err == nil {
		t.Fatal("InsertContent should reject unknown content type")
	}
}

func TestResolveContents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	first := testsupport.SeedContent(t, store, cfg, catalog.TypeMovie, "uno", 100)
	second := testsupport.SeedContent(t, store, cfg, catalog.TypeMusic, "dos", 200)

	resolved, missing, err := store.ResolveContents(ctx, []int64{second.ID, 999, first.ID, 1000})
	if err != nil {
		t.Fatalf("ResolveContents failed: %v", err)
	}
	if len(resolved) != 2 || resolved[0].ID != second.ID || resolved[1].ID != first.ID {
		t.Errorf("resolved order mismatch: %+v", resolved)
	}
	if len(missing) != 2 || missing[0] != 999 || missing[1] != 1000 {
		t.Errorf("missing ids mismatch: %v", missing)
	}
}

func TestAdvertisingRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	inserted, err := store.InsertAdvertising(ctx, &catalog.Advertising{
		Kind:            catalog.AdPreroll,
		Title:           "promo verano",
		Path:            "/ads/promo.mp4",
		DurationSeconds: 15,
	})
	if err != nil {
		t.Fatalf("InsertAdvertising failed: %v", err)
	}

	got, err := store.Advertising(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("Advertising failed: %v", err)
	}
	if got == nil || got.Kind != catalog.AdPreroll || got.DurationSeconds != 15 {
		t.Errorf("advertising round trip mismatch: %+v", got)
	}
}
