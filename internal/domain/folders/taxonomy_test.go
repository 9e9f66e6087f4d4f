package folders

import (
	"strings"
	"testing"
)

func TestBuiltin_PathInvariants(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Builtin() {
		if seen[f.Path] {
			t.Errorf("duplicate path %q", f.Path)
		}
		seen[f.Path] = true

		if strings.Contains(f.Path, "/") {
			t.Errorf("top-level path %q must not contain a slash", f.Path)
		}
		for _, c := range f.Children {
			if seen[c.Path] {
				t.Errorf("duplicate path %q", c.Path)
			}
			seen[c.Path] = true

			if !strings.HasPrefix(c.Path, f.Path+"/") {
				t.Errorf("child path %q is not prefixed by parent %q", c.Path, f.Path)
			}
			if strings.Count(c.Path, "/") != 1 {
				t.Errorf("child path %q deeper than two segments", c.Path)
			}
		}
	}
}

func TestBuiltin_DisplayOrder(t *testing.T) {
	prev := -1
	for _, f := range Builtin() {
		order := DisplayOrder(f.Path)
		if order <= prev {
			t.Errorf("folder %q out of display order: %d after %d", f.Path, order, prev)
		}
		prev = order
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("03_Reports/Daily_Reports"); !ok {
		t.Error("Lookup() should find built-in subfolder")
	}
	if _, ok := Lookup("03_Reports"); !ok {
		t.Error("Lookup() should find built-in top-level folder")
	}
	if _, ok := Lookup("99_My_Folder"); ok {
		t.Error("Lookup() should not find custom folders")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		path       string
		adminOnly  bool
		custom     bool
		uploads    bool
		report     bool
		valid      bool
	}{
		{"01_Customer_Uploads", false, false, true, false, true},
		{"01_Customer_Uploads/Photos", false, false, true, false, true},
		{"03_Reports/Daily_Reports", false, false, false, true, true},
		{"06_Invoices/Final_Invoices", false, false, false, false, true},
		{"90_Internal_Notes", true, false, false, false, false},
		{"99_Warranty_Extras", false, true, true, false, true},
		{"99_Warranty_Extras/Sub", false, true, true, false, true},
		{"", false, false, false, false, false},
		{"a/b/c", false, false, false, false, false},
	}

	for _, tt := range tests {
		if got := IsAdminOnly(tt.path); got != tt.adminOnly {
			t.Errorf("IsAdminOnly(%q) = %v, want %v", tt.path, got, tt.adminOnly)
		}
		if got := IsCustom(tt.path); got != tt.custom {
			t.Errorf("IsCustom(%q) = %v, want %v", tt.path, got, tt.custom)
		}
		if got := AllowsUploads(tt.path); got != tt.uploads {
			t.Errorf("AllowsUploads(%q) = %v, want %v", tt.path, got, tt.uploads)
		}
		if got := IsReportFolder(tt.path); got != tt.report {
			t.Errorf("IsReportFolder(%q) = %v, want %v", tt.path, got, tt.report)
		}
		if got := IsValid(tt.path); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.path, got, tt.valid)
		}
	}
}

func TestCountable(t *testing.T) {
	paths := Countable([]string{"99_Extras", "not_custom"})

	want := map[string]bool{
		"00_Project_Information":     true,
		"01_Customer_Uploads":        true,
		"01_Customer_Uploads/Photos": true,
		"03_Reports":                 true,
		"03_Reports/Daily_Reports":   true,
		"99_Extras":                  true,
	}
	got := map[string]bool{}
	for _, p := range paths {
		got[p] = true
	}
	for p := range want {
		if !got[p] {
			t.Errorf("Countable() missing %q", p)
		}
	}

	// Non-custom extension entries are ignored.
	if got["not_custom"] {
		t.Error("Countable() should ignore non-custom extension paths")
	}
}
