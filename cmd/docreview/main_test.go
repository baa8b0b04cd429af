package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docreview/internal/engine"
)

const testRubric = "../../internal/rubric/testdata/plan_van_aanpak.yaml"

const planText = `1 Inleiding
Ik beschrijf in dit plan hoe het onderzoek wordt uitgevoerd.

2 Doelstelling
Wij gaan het project verbeteren.
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pva.txt")
	require.NoError(t, os.WriteFile(path, []byte(planText), 0o644))
	return path
}

func TestAnalyze_Text(t *testing.T) {
	out, err := run(t, "analyze", "--rubric", testRubric, writeDoc(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Document type: plan_van_aanpak")
	assert.Contains(t, out, "Sections: 2 found, 5 missing")
	assert.Contains(t, out, "[VIOLATION] SMART doelstelling (Section: Doelstelling)")
	assert.NotContains(t, out, "[OK]")
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := run(t, "analyze", "--rubric", testRubric, "--format", "json", writeDoc(t))
	require.NoError(t, err)
	var report engine.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Stats.SectionsFound)
}

func TestAnalyze_FlagErrors(t *testing.T) {
	doc := writeDoc(t)
	_, err := run(t, "analyze", doc)
	assert.ErrorContains(t, err, "--rubric")

	_, err = run(t, "analyze", "--rubric", testRubric, "--duplicates", "middle", doc)
	assert.ErrorContains(t, err, "--duplicates")

	_, err = run(t, "analyze", "--rubric", testRubric, "--format", "xml", doc)
	assert.ErrorContains(t, err, "--format")
}

func TestRubricValidate(t *testing.T) {
	out, err := run(t, "rubric", "validate", testRubric)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ok"), out)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("document_type: x\ncriteria:\n  - id: 1\n    kind: nonsense\n"), 0o644))
	_, err = run(t, "rubric", "validate", testRubric, bad)
	assert.ErrorContains(t, err, "1 of 2 rubrics invalid")
}

func TestRubricImportThenAnalyzeFromDB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "review.db")
	out, err := run(t, "rubric", "import", "--db", db, testRubric)
	require.NoError(t, err)
	assert.Contains(t, out, "imported plan_van_aanpak")

	out, err = run(t, "analyze", "--db", db, "--type", "plan_van_aanpak", writeDoc(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Sections: 2 found, 5 missing")
}
