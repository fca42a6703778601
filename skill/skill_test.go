package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
}

const pdfSkill = `---
name: pdf
description: Process PDF files. Use when reading, creating or merging PDFs.
---

# PDF Processing

Use pdftotext for quick extraction.
`

func TestLoadAndSummaries(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)
	writeSkill(t, root, "review", `---
name: code-review
description: Systematic code review checklist.
---

Review the diff hunk by hunk.
`)

	lib, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, []string{"code-review", "pdf"}, lib.Names())

	summaries := lib.Summaries()
	assert.Contains(t, summaries, "- pdf: Process PDF files.")
	assert.Contains(t, summaries, "- code-review: Systematic code review checklist.")
}

func TestLoadMissingDirectory(t *testing.T) {
	lib, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, lib.Len())
	assert.Equal(t, "(no skills available)", lib.Summaries())
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "good", pdfSkill)
	writeSkill(t, root, "nofront", "# just markdown, no frontmatter\n")
	writeSkill(t, root, "nometa", "---\nauthor: someone\n---\n\nbody\n")
	// Directory without a SKILL.md at all.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	lib, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf"}, lib.Names())
}

func TestRenderIncludesMarkersAndResources(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)
	scripts := filepath.Join(root, "pdf", "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "extract.py"), []byte("pass"), 0o644))

	lib, err := Load(root)
	require.NoError(t, err)

	out, err := lib.Render("pdf")
	require.NoError(t, err)
	assert.Contains(t, out, `<skill-loaded name="pdf">`)
	assert.Contains(t, out, "</skill-loaded>")
	assert.Contains(t, out, "Use pdftotext for quick extraction.")
	assert.Contains(t, out, "scripts: extract.py")
	assert.Contains(t, out, "Follow the instructions in the loaded skill")
}

func TestRenderUnknownSkillEnumeratesLoaded(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	lib, err := Load(root)
	require.NoError(t, err)

	_, err = lib.Render("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown skill "nonexistent"`)
	assert.Contains(t, err.Error(), "pdf")
}
