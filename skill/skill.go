// Package skill implements progressive knowledge disclosure. A skill is a
// directory containing a SKILL.md file (YAML frontmatter plus a markdown
// body) and optional scripts/, references/ and assets/ resources.
//
// Tier 1 (always available) is the name and description of every loaded
// skill. Tier 2 is the full SKILL.md body, served on demand. Tier 3 is the
// resource manifest: file names only, which the agent fetches itself.
//
// The library is scanned once at startup and is read-only afterwards, so it
// can be shared between loops without locking.
package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// resourceFolders are the optional per-skill directories surfaced in the
// manifest, in presentation order.
var resourceFolders = []string{"scripts", "references", "assets"}

// Record is one immutable knowledge unit.
type Record struct {
	Name        string
	Description string
	Body        string
	Dir         string
	// Resources maps a resource folder name to the file names inside it.
	// Contents are never loaded here; only the names are disclosed.
	Resources map[string][]string
}

// Library holds all records loaded from a skills directory.
type Library struct {
	records map[string]*Record
	names   []string // sorted for deterministic listings
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Load scans dir for skill subdirectories and parses each SKILL.md. A
// missing directory yields an empty library. Malformed skill files are
// skipped, never fatal.
func Load(dir string) (*Library, error) {
	lib := &Library{records: make(map[string]*Record)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("scan skills directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillDir := filepath.Join(dir, entry.Name())
		rec, err := parseSkillFile(filepath.Join(skillDir, "SKILL.md"))
		if err != nil || rec == nil {
			continue
		}
		rec.Dir = skillDir
		rec.Resources = scanResources(skillDir)
		lib.records[rec.Name] = rec
	}

	for name := range lib.records {
		lib.names = append(lib.names, name)
	}
	sort.Strings(lib.names)

	return lib, nil
}

// parseSkillFile splits a SKILL.md into YAML frontmatter and markdown body.
// Returns nil for files that do not match the format or lack required
// metadata.
func parseSkillFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return nil, nil
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, nil
	}

	var meta frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil, nil
	}
	if meta.Name == "" || meta.Description == "" {
		return nil, nil
	}

	body := rest[end+4:]
	if idx := strings.Index(body, "\n"); idx >= 0 && strings.TrimSpace(body[:idx]) == "" {
		body = body[idx+1:]
	}

	return &Record{
		Name:        meta.Name,
		Description: meta.Description,
		Body:        strings.TrimSpace(body),
	}, nil
}

func scanResources(skillDir string) map[string][]string {
	resources := make(map[string][]string)
	for _, folder := range resourceFolders {
		entries, err := os.ReadDir(filepath.Join(skillDir, folder))
		if err != nil {
			continue
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		if len(names) > 0 {
			sort.Strings(names)
			resources[folder] = names
		}
	}
	return resources
}

// Names returns the loaded skill names in sorted order.
func (l *Library) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of loaded skills.
func (l *Library) Len() int { return len(l.records) }

// Get returns the record for name.
func (l *Library) Get(name string) (*Record, bool) {
	rec, ok := l.records[name]
	return rec, ok
}

// Summaries renders the tier-1 listing used in capability descriptions and
// the system directive: one "name: description" line per skill.
func (l *Library) Summaries() string {
	if len(l.records) == 0 {
		return "(no skills available)"
	}
	var sb strings.Builder
	for i, name := range l.names {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s: %s", name, l.records[name].Description)
	}
	return sb.String()
}

// Render returns the tier 2+3 payload for name: the full body wrapped in
// explicit start/end markers, the resource manifest, and a trailing
// instruction to follow the skill. Unknown names fail with an error that
// enumerates the loaded skills.
func (l *Library) Render(name string) (string, error) {
	rec, ok := l.records[name]
	if !ok {
		available := strings.Join(l.names, ", ")
		if available == "" {
			available = "none"
		}
		return "", fmt.Errorf("unknown skill %q. Available: %s", name, available)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<skill-loaded name=%q>\n", rec.Name)
	fmt.Fprintf(&sb, "# Skill: %s\n\n", rec.Name)
	sb.WriteString(rec.Body)

	if len(rec.Resources) > 0 {
		fmt.Fprintf(&sb, "\n\n**Available resources in %s:**\n", rec.Dir)
		for _, folder := range resourceFolders {
			files, ok := rec.Resources[folder]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", folder, strings.Join(files, ", "))
		}
	}

	sb.WriteString("\n</skill-loaded>\n\n")
	sb.WriteString("Follow the instructions in the loaded skill to complete the user's task.")
	return sb.String(), nil
}
