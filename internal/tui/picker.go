package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// imageExtensions are the upload-eligible file types. The gate still
// validates whatever gets picked; this only narrows the listing.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// imageItem implements list.Item for the image picker
type imageItem struct {
	path    string
	relPath string
}

func (i imageItem) Title() string       { return i.relPath }
func (i imageItem) Description() string { return i.path }
func (i imageItem) FilterValue() string { return i.relPath }

// imageItems is a slice of imageItem that implements fuzzy.Source
type imageItems []imageItem

func (f imageItems) String(i int) string { return f[i].relPath }
func (f imageItems) Len() int            { return len(f) }

// ImagePicker lists image files under a directory for upload selection
type ImagePicker struct {
	list    list.Model
	items   imageItems
	workDir string
	filter  string
}

// NewImagePicker creates a picker rooted at workDir
func NewImagePicker(workDir string, width, height int) *ImagePicker {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)

	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	l := list.New([]list.Item{}, delegate, width, height)
	l.Title = "Select an image (jpg, png, gif)"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	return &ImagePicker{
		list:    l,
		workDir: workDir,
	}
}

// LoadFiles scans the working directory for image files
func (ip *ImagePicker) LoadFiles() error {
	var items imageItems

	err := filepath.Walk(ip.workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		name := info.Name()
		if strings.HasPrefix(name, ".") && name != "." {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			switch name {
			case "node_modules", "vendor", "__pycache__", "dist", "build":
				return filepath.SkipDir
			}
			return nil
		}

		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		relPath, err := filepath.Rel(ip.workDir, path)
		if err != nil {
			return nil
		}

		items = append(items, imageItem{path: path, relPath: relPath})
		return nil
	})

	if err != nil {
		return err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].relPath < items[j].relPath
	})

	ip.items = items
	ip.updateList("")
	return nil
}

// updateList updates the list with filtered items
func (ip *ImagePicker) updateList(filter string) {
	ip.filter = filter

	var listItems []list.Item
	if filter == "" {
		for _, item := range ip.items {
			listItems = append(listItems, item)
		}
	} else {
		matches := fuzzy.FindFrom(filter, ip.items)
		for _, match := range matches {
			listItems = append(listItems, ip.items[match.Index])
		}
	}

	ip.list.SetItems(listItems)
}

// Update handles messages for the picker
func (ip *ImagePicker) Update(msg tea.Msg) (*ImagePicker, tea.Cmd) {
	var cmd tea.Cmd
	ip.list, cmd = ip.list.Update(msg)
	return ip, cmd
}

// View renders the picker
func (ip *ImagePicker) View() string {
	if len(ip.items) == 0 {
		return "\n  No image files found under " + ip.workDir + "\n"
	}
	return ip.list.View()
}

// SelectedPath returns the absolute path of the highlighted file
func (ip *ImagePicker) SelectedPath() (string, bool) {
	item, ok := ip.list.SelectedItem().(imageItem)
	if !ok {
		return "", false
	}
	return item.path, true
}

// SetSize updates the picker dimensions
func (ip *ImagePicker) SetSize(width, height int) {
	ip.list.SetSize(width, height)
}
