package ideaflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEvaluationRecordsWholeJSON(t *testing.T) {
	raw := `[{"score": 8, "comment": "solid"}, {"score": 6, "comment": "meh"}]`
	recs := ParseEvaluationRecords(raw, 2)
	require.Len(t, recs, 2)
	require.Equal(t, validatedRecord{Score: 8, Comment: "solid"}, validateRecord(recs[0]))
	require.Equal(t, validatedRecord{Score: 6, Comment: "meh"}, validateRecord(recs[1]))
}

func TestParseEvaluationRecordsPlainTextFallback(t *testing.T) {
	raw := "score: 7, comment: good\nscore: 9, comment: great\n"
	recs := ParseEvaluationRecords(raw, 2)
	require.Len(t, recs, 2)
	v0 := validateRecord(recs[0])
	v1 := validateRecord(recs[1])
	require.Equal(t, 7.0, v0.Score)
	require.Equal(t, "good", v0.Comment)
	require.Equal(t, 9.0, v1.Score)
	require.Equal(t, "great", v1.Comment)
}

func TestParseEvaluationRecordsPadsShortfall(t *testing.T) {
	raw := `{"score": 5, "comment": "ok"}`
	recs := ParseEvaluationRecords(raw, 3)
	require.Len(t, recs, 3)
	require.Equal(t, "Failed to parse evaluation", validateRecord(recs[1]).Comment)
	require.Equal(t, "Failed to parse evaluation", validateRecord(recs[2]).Comment)
}

func TestParseEvaluationRecordsTotalFailure(t *testing.T) {
	recs := ParseEvaluationRecords("completely unparseable gibberish ???", 4)
	require.Len(t, recs, 4)
	for _, r := range recs {
		v := validateRecord(r)
		require.Equal(t, 0.0, v.Score)
	}
}

func TestValidateRecordClampsScore(t *testing.T) {
	require.Equal(t, 10.0, validateRecord(parsedRecord{Score: 42}).Score)
	require.Equal(t, 0.0, validateRecord(parsedRecord{Score: -5}).Score)
	require.Equal(t, 7.0, validateRecord(parsedRecord{Score: "7"}).Score)
	require.Equal(t, 0.0, validateRecord(parsedRecord{Score: "not-a-number"}).Score)
}

func TestValidateRecordDefaultsComment(t *testing.T) {
	require.Equal(t, "No comment provided", validateRecord(parsedRecord{Score: 5}).Comment)
}

func TestValidateRecordIdempotent(t *testing.T) {
	r := parsedRecord{Score: "11", Comment: "  trimmed  "}
	once := validateRecord(r)
	twice := validateRecord(parsedRecord{Score: once.Score, Comment: once.Comment})
	require.Equal(t, once, twice)
}

func TestCleanLLMResponseStripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"score\": 5, \"comment\": \"x\"}\n```"
	cleaned := cleanLLMResponse(raw)
	require.Equal(t, `{"score": 5, "comment": "x"}`, cleaned)
}

func TestFindJSONEndStringSafeIgnoresBracesInStrings(t *testing.T) {
	text := `{"comment": "a {weird} value"}`
	end := findJSONEndStringSafe(text, 0)
	require.Equal(t, len(text)-1, end)
}
