package storage

import (
	"context"
	"testing"

	"github.com/dgallion1/docreview/internal/criteria"
	"github.com/dgallion1/docreview/internal/engine"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateSchema(context.Background()))
	return db
}

func testRubric(t *testing.T) *rubric.Rubric {
	t.Helper()
	r, err := rubric.LoadFile("../rubric/testdata/plan_van_aanpak.yaml")
	require.NoError(t, err)
	return r
}

func TestImportAndLoadRubric(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	src := testRubric(t)
	require.NoError(t, db.ImportRubric(ctx, src))

	got, err := db.Rubric(ctx, "plan_van_aanpak")
	require.NoError(t, err)

	assert.Equal(t, src.Name, got.Name)
	require.Len(t, got.Templates, len(src.Templates))
	for i := range src.Templates {
		assert.Equal(t, src.Templates[i].Identifier, got.Templates[i].Identifier)
		assert.Equal(t, src.Templates[i].AlternativeNames, got.Templates[i].AlternativeNames)
		assert.Equal(t, src.Templates[i].IsRequired, got.Templates[i].IsRequired)
	}
	assert.NotNil(t, got.Templates[3].Regexp(), "pattern is compiled on load")

	require.Len(t, got.Criteria, len(src.Criteria))
	for i := range src.Criteria {
		assert.Equal(t, src.Criteria[i].ID, got.Criteria[i].ID)
		assert.Equal(t, src.Criteria[i].Kind, got.Criteria[i].Kind)
		assert.Equal(t, src.Criteria[i].Enabled, got.Criteria[i].Enabled)
		assert.Equal(t, src.Criteria[i].ExpectedMin, got.Criteria[i].ExpectedMin)
		assert.Equal(t, src.Criteria[i].Params, got.Criteria[i].Params)
	}
	assert.Equal(t, rubric.KindLegalCitation, got.Criteria[6].Kind, "legacy kind is stored once inferred")
	assert.Equal(t, src.Mappings, got.Mappings)
}

func TestImportRubric_Replaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := testRubric(t)
	require.NoError(t, db.ImportRubric(ctx, r))

	r.Criteria = r.Criteria[:1]
	r.Mappings = nil
	require.NoError(t, db.ImportRubric(ctx, r))

	got, err := db.Rubric(ctx, "plan_van_aanpak")
	require.NoError(t, err)
	assert.Len(t, got.Criteria, 1)
	assert.Empty(t, got.Mappings)

	types, err := db.DocumentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"plan_van_aanpak"}, types)
}

func TestImportRubric_RejectsInvalid(t *testing.T) {
	db := openTestDB(t)
	err := db.ImportRubric(context.Background(), &rubric.Rubric{})
	assert.Error(t, err)
}

func TestRubric_Unknown(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Rubric(context.Background(), "scriptie")
	assert.ErrorIs(t, err, rubric.ErrUnknownDocumentType)
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sec := "inleiding"
	report := &engine.Report{
		DocumentType: "plan_van_aanpak",
		Feedback: []criteria.FeedbackItem{
			{CriterionID: 1, SectionIdentifier: &sec, Status: rubric.StatusViolation, Message: "te kort"},
			{CriterionID: 2, Status: rubric.StatusWarning, Message: "persoonlijk"},
			{CriterionID: 3, Status: rubric.StatusOK},
		},
		Stats: engine.Stats{SectionsFound: 4},
	}
	require.NoError(t, db.SaveAnalysis(ctx, "job-1", "pva.docx", report))
	require.NoError(t, db.SaveAnalysis(ctx, "job-1", "pva.docx", report), "saving twice upserts")

	got, err := db.LoadAnalysis(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, report.Feedback, got.Feedback)

	rows, err := db.ListAnalyses(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Violations)
	assert.Equal(t, 1, rows[0].Warnings)
	assert.Equal(t, 3, rows[0].Feedback)
	assert.Equal(t, "pva.docx", rows[0].Filename)

	rows, err = db.ListAnalyses(ctx, "scriptie", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = db.LoadAnalysis(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
