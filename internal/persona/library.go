// Package persona loads persona presets from markdown files with a YAML
// frontmatter block. Presets live in ~/.personafin/personas/<name>.md:
//
//	---
//	name: grumpy-barista
//	description: a barista who has seen too much
//	---
//	You are a barista at a busy downtown coffee shop...
//
// The body becomes the persona description applied by "/persona use <name>".
package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is one loadable persona.
type Preset struct {
	Name        string
	Description string
	Body        string
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Library reads presets from a directory. The directory may not exist; all
// lookups then behave as if it were empty.
type Library struct {
	dir string
}

// NewLibrary creates a Library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// List returns all presets sorted by name. Unparseable files are skipped.
func (l *Library) List() []Preset {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}

	var presets []Preset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		p, err := l.load(filepath.Join(l.dir, e.Name()))
		if err != nil {
			continue
		}
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}

// Get resolves a preset by name.
func (l *Library) Get(name string) (Preset, error) {
	for _, p := range l.List() {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("persona preset %q not found", name)
}

// load parses one preset file. The frontmatter name defaults to the file
// name without extension.
func (l *Library) load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}

	fm, body := splitFrontmatter(string(data))

	var meta frontmatter
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
			return Preset{}, fmt.Errorf("parse frontmatter %s: %w", path, err)
		}
	}
	if meta.Name == "" {
		meta.Name = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return Preset{}, fmt.Errorf("preset %s has no body", path)
	}

	return Preset{Name: meta.Name, Description: meta.Description, Body: body}, nil
}

// splitFrontmatter separates a leading "---" YAML block from the body.
// Content without a frontmatter block is returned whole as the body.
func splitFrontmatter(content string) (fm, body string) {
	const marker = "---"
	if !strings.HasPrefix(content, marker+"\n") {
		return "", content
	}
	rest := content[len(marker)+1:]
	end := strings.Index(rest, "\n"+marker)
	if end < 0 {
		return "", content
	}
	fm = rest[:end]
	body = rest[end+len(marker)+1:]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return fm, body
}
