package gallery

import (
	"testing"

	"github.com/Green-Power-Project/window-app-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Albums(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	published, err := store.CreateAlbum(ctx, "Facade Projects", "", 2, true)
	if err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}
	if _, err := store.CreateAlbum(ctx, "Conservatories", "", 1, true); err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}
	draft, err := store.CreateAlbum(ctx, "Drafts", "", 0, false)
	if err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}

	albums, err := store.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("ListAlbums() error = %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("ListAlbums() returned %d albums, want 2 (unpublished hidden)", len(albums))
	}
	if albums[0].Title != "Conservatories" {
		t.Errorf("first album = %q, want sort_index order", albums[0].Title)
	}

	// Unpublished albums are invisible through GetAlbum too.
	if _, err := store.GetAlbum(ctx, draft.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetAlbum(draft) error = %v, want %v", err, mongo.ErrNoDocuments)
	}
	if _, err := store.GetAlbum(ctx, published.ID); err != nil {
		t.Errorf("GetAlbum(published) error = %v", err)
	}
}

func TestStore_Images(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	album, err := store.CreateAlbum(ctx, "Windows", "", 0, true)
	if err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}

	for i, name := range []string{"b.jpg", "a.jpg"} {
		if _, err := store.CreateImage(ctx, album.ID, "", "https://media.example.com/gallery/"+name, name, 1-i); err != nil {
			t.Fatalf("CreateImage(%s) error = %v", name, err)
		}
	}

	images, err := store.ListImages(ctx, album.ID)
	if err != nil {
		t.Fatalf("ListImages() error = %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("ListImages() returned %d images, want 2", len(images))
	}
	if images[0].StorageID != "a.jpg" {
		t.Errorf("first image = %q, want sort_index order", images[0].StorageID)
	}
}

func TestStore_Catalogue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.CreateCatalogueEntry(ctx, "Window Systems 2026", "windows", "https://media.example.com/catalogue/w.pdf", "w.pdf", 0, true); err != nil {
		t.Fatalf("CreateCatalogueEntry() error = %v", err)
	}
	if _, err := store.CreateCatalogueEntry(ctx, "Door Systems 2026", "doors", "https://media.example.com/catalogue/d.pdf", "d.pdf", 1, true); err != nil {
		t.Fatalf("CreateCatalogueEntry() error = %v", err)
	}
	if _, err := store.CreateCatalogueEntry(ctx, "Internal Pricing", "windows", "https://media.example.com/catalogue/p.pdf", "p.pdf", 2, false); err != nil {
		t.Fatalf("CreateCatalogueEntry() error = %v", err)
	}

	all, err := store.ListCatalogue(ctx, "")
	if err != nil {
		t.Fatalf("ListCatalogue() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListCatalogue() returned %d entries, want 2 (unpublished hidden)", len(all))
	}

	windows, err := store.ListCatalogue(ctx, "windows")
	if err != nil {
		t.Fatalf("ListCatalogue(windows) error = %v", err)
	}
	if len(windows) != 1 || windows[0].Title != "Window Systems 2026" {
		t.Errorf("ListCatalogue(windows) = %v, want only published windows entry", windows)
	}
}
