// Package folders defines the fixed taxonomy of project folders and the
// predicates that classify them.
//
// Every project shares the same built-in folder tree. Folder paths are
// slash-delimited and at most two segments deep; built-in top-level folders
// carry a numeric prefix (00_..08_) that encodes display order. Two reserved
// prefixes mark special folders: 90_ folders belong to the back office and
// must never appear in customer-facing listings, and 99_ folders are created
// by customers themselves and exist only on the projects that carry them.
package folders

import (
	"strconv"
	"strings"
)

// Reserved path prefixes.
const (
	AdminPrefix  = "90_" // back-office only, hidden from customers
	CustomPrefix = "99_" // customer-created folders
)

// UploadRoot is the one built-in folder tree customers may upload into.
const UploadRoot = "01_Customer_Uploads"

// ReportRoot is the folder tree whose files carry the approval workflow.
const ReportRoot = "03_Reports"

// Folder describes one node of the taxonomy.
type Folder struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Children []Folder `json:"children,omitempty"`
}

// builtin is the fixed folder tree shared by all projects.
var builtin = []Folder{
	{Name: "Project Information", Path: "00_Project_Information"},
	{Name: "Your Uploads", Path: "01_Customer_Uploads", Children: []Folder{
		{Name: "Photos", Path: "01_Customer_Uploads/Photos"},
		{Name: "Documents", Path: "01_Customer_Uploads/Documents"},
	}},
	{Name: "Site Photos", Path: "02_Site_Photos", Children: []Folder{
		{Name: "Before Installation", Path: "02_Site_Photos/Before_Installation"},
		{Name: "After Installation", Path: "02_Site_Photos/After_Installation"},
	}},
	{Name: "Reports", Path: "03_Reports", Children: []Folder{
		{Name: "Daily Reports", Path: "03_Reports/Daily_Reports"},
		{Name: "Final Reports", Path: "03_Reports/Final_Reports"},
	}},
	{Name: "Plans & Drawings", Path: "04_Plans_And_Drawings"},
	{Name: "Certificates", Path: "05_Certificates"},
	{Name: "Invoices", Path: "06_Invoices", Children: []Folder{
		{Name: "Partial Invoices", Path: "06_Invoices/Partial_Invoices"},
		{Name: "Final Invoices", Path: "06_Invoices/Final_Invoices"},
	}},
	{Name: "Quotations", Path: "07_Quotations"},
	{Name: "Manuals", Path: "08_Manuals"},
}

// Builtin returns the built-in folder tree in display order.
// Callers must not mutate the returned slice.
func Builtin() []Folder {
	return builtin
}

// Lookup finds a built-in folder by path.
func Lookup(path string) (Folder, bool) {
	for _, f := range builtin {
		if f.Path == path {
			return f, true
		}
		for _, c := range f.Children {
			if c.Path == path {
				return c, true
			}
		}
	}
	return Folder{}, false
}

// IsValid reports whether path names a folder a customer-facing listing may
// reference: a built-in folder or a well-formed custom folder path.
func IsValid(path string) bool {
	if path == "" || strings.Count(path, "/") > 1 {
		return false
	}
	if _, ok := Lookup(path); ok {
		return true
	}
	return IsCustom(path)
}

// TopLevel returns the top-level segment of a folder path.
func TopLevel(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// IsAdminOnly reports whether the folder belongs to the back office and must
// be hidden from customers.
func IsAdminOnly(path string) bool {
	return strings.HasPrefix(TopLevel(path), AdminPrefix)
}

// IsCustom reports whether the folder is a customer-created one.
func IsCustom(path string) bool {
	return strings.HasPrefix(TopLevel(path), CustomPrefix)
}

// AllowsUploads reports whether customers may upload files into the folder.
// Only the customer-uploads tree and customer-created folders accept uploads.
func AllowsUploads(path string) bool {
	return TopLevel(path) == UploadRoot || IsCustom(path)
}

// IsReportFolder reports whether files in the folder carry the approval
// workflow.
func IsReportFolder(path string) bool {
	return TopLevel(path) == ReportRoot
}

// DisplayOrder returns the numeric display prefix of a built-in folder path,
// or a large value for custom folders so they sort after the built-ins.
func DisplayOrder(path string) int {
	top := TopLevel(path)
	if len(top) >= 3 && top[2] == '_' {
		if n, err := strconv.Atoi(top[:2]); err == nil {
			return n
		}
	}
	return 100
}

// Countable returns every folder that may hold files for a project: all
// built-in folders, parents included (files can land directly in a parent
// such as 03_Reports, not just in its children), plus the project's custom
// folders. Admin-only folders are excluded.
func Countable(customFolders []string) []string {
	var paths []string
	for _, f := range builtin {
		paths = append(paths, f.Path)
		for _, c := range f.Children {
			paths = append(paths, c.Path)
		}
	}
	for _, p := range customFolders {
		if IsCustom(p) {
			paths = append(paths, p)
		}
	}
	return paths
}
