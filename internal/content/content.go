package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pavelanni/trainer/internal/model"
)

const trophyFileName = "trophy.png"

// ListModules scans the training root and returns the modules found there,
// sorted by name. A module is a subdirectory containing at least one PDF;
// directories without one are skipped. The first PDF (and first MP4, if any)
// in name order is the module's document (and video).
func ListModules(root string) ([]model.Module, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read training dir %s: %w", root, err)
	}

	var modules []model.Module
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read module dir %s: %w", dir, err)
		}

		m := model.Module{Name: e.Name()}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			switch {
			case strings.EqualFold(filepath.Ext(name), ".pdf") && m.DocumentPath == "":
				m.DocumentPath = filepath.Join(dir, name)
			case strings.EqualFold(filepath.Ext(name), ".mp4") && m.VideoPath == "":
				m.VideoPath = filepath.Join(dir, name)
			case name == trophyFileName:
				m.TrophyPath = filepath.Join(dir, name)
			}
		}
		if m.DocumentPath == "" {
			continue
		}
		modules = append(modules, m)
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules, nil
}

// FindModule returns the module with the given name.
func FindModule(modules []model.Module, name string) (model.Module, bool) {
	for _, m := range modules {
		if m.Name == name {
			return m, true
		}
	}
	return model.Module{}, false
}

// NextModule returns the name of the module following current in sorted
// order. It returns ok=false when current is the last module or is not in
// the list.
func NextModule(modules []model.Module, current string) (string, bool) {
	for i, m := range modules {
		if m.Name == current {
			if i < len(modules)-1 {
				return modules[i+1].Name, true
			}
			return "", false
		}
	}
	return "", false
}
