package tables

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipleye-data/reading.report/internal/measures"
)

const fixationHeader = "trial,stimulus,page,name,onset,duration,word_idx,char_idx,char,word\n"

func TestReadFixations(t *testing.T) {
	t.Parallel()

	in := fixationHeader +
		"trial_1,stim_1,page_1,fixation,100,115,0,2,l,Mali\n" +
		"trial_1,stim_1,page_1,saccade,215,30,,,,\n" +
		"trial_1,stim_1,page_1,fixation,300,140,null,NA,,\n"

	events, err := ReadFixations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 3, "non-fixation events and unmapped fixations are kept at this layer")

	first := events[0]
	assert.Equal(t, "trial_1", first.Trial)
	assert.Equal(t, "fixation", first.Name)
	assert.Equal(t, float64(100), first.Onset)
	assert.Equal(t, float64(115), first.Duration)
	require.NotNil(t, first.WordIdx)
	assert.Equal(t, 0, *first.WordIdx)
	require.NotNil(t, first.CharIdx)
	assert.Equal(t, 2, *first.CharIdx)
	assert.Equal(t, "Mali", first.Word)

	assert.Nil(t, events[1].WordIdx, "empty word_idx reads as nil")
	assert.Nil(t, events[2].WordIdx, "null word_idx reads as nil")
	assert.Nil(t, events[2].CharIdx, "NA char_idx reads as nil")
}

func TestReadFixationsShuffledColumns(t *testing.T) {
	t.Parallel()

	in := "word,char,char_idx,word_idx,duration,onset,name,page,stimulus,trial\n" +
		"Mali,M,0,0,115,100,fixation,page_1,stim_1,trial_1\n"

	events, err := ReadFixations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, float64(100), events[0].Onset)
	assert.Equal(t, "Mali", events[0].Word)
}

func TestReadFixationsMissingColumn(t *testing.T) {
	t.Parallel()

	in := "trial,stimulus,page,name,onset,word_idx,char_idx,char,word\nx,x,x,fixation,1,0,0,a,b\n"

	_, err := ReadFixations(strings.NewReader(in))
	require.Error(t, err)

	var schema *measures.SchemaError
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, "fixations", schema.Table)
	assert.Equal(t, "duration", schema.Column)
}

func TestReadFixationsBadNumber(t *testing.T) {
	t.Parallel()

	in := fixationHeader + "trial_1,stim_1,page_1,fixation,oops,115,0,0,M,Mali\n"
	_, err := ReadFixations(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onset")
}

func TestReadAOIs(t *testing.T) {
	t.Parallel()

	in := "page,word_idx,word,line_idx,char_idx_in_line\n" +
		"page_1,0,Mali,0,0\n" +
		"page_1,1,Dy,0,5\n"

	aois, err := ReadAOIs(strings.NewReader(in), "trial_7")
	require.NoError(t, err)
	require.Len(t, aois, 2)
	assert.Equal(t, "trial_7", aois[0].Trial, "missing trial column takes the fallback")
	assert.Equal(t, 1, aois[1].WordIdx)
	assert.Equal(t, 5, aois[1].CharIdxInLine)
}

func TestReadAOIsExplicitTrialWins(t *testing.T) {
	t.Parallel()

	in := "trial,page,word_idx,word,line_idx,char_idx_in_line\n" +
		"trial_2,page_1,0,Mali,0,0\n" +
		",page_1,1,Dy,0,5\n"

	aois, err := ReadAOIs(strings.NewReader(in), "trial_7")
	require.NoError(t, err)
	require.Len(t, aois, 2)
	assert.Equal(t, "trial_2", aois[0].Trial)
	assert.Equal(t, "trial_7", aois[1].Trial, "blank cell still falls back")
}

func TestReadAOIsConsistentHeight(t *testing.T) {
	t.Parallel()

	in := "page,word_idx,word,line_idx,char_idx_in_line,height\n" +
		"page_1,0,Mali,0,0,26.5\n" +
		"page_1,1,Dy,0,5,26.5\n" +
		"page_2,0,ba,0,0,30\n"

	_, err := ReadAOIs(strings.NewReader(in), "t")
	require.NoError(t, err, "heights may differ across pages")
}

func TestReadAOIsInconsistentHeight(t *testing.T) {
	t.Parallel()

	in := "page,word_idx,word,line_idx,char_idx_in_line,height\n" +
		"page_1,0,Mali,0,0,26.5\n" +
		"page_1,1,Dy,0,5,30\n"

	_, err := ReadAOIs(strings.NewReader(in), "t")
	require.Error(t, err)

	var geom *measures.InconsistentGeometryError
	require.True(t, errors.As(err, &geom))
	assert.Equal(t, "page_1", geom.Page)
	assert.Len(t, geom.Heights, 2)
}

func TestWriteMeasures(t *testing.T) {
	t.Parallel()

	rows := []measures.WordMeasures{
		{
			Trial: "trial_1", Page: "page_1", WordIdx: 0, Word: "Mali",
			TFC: 1, FPFC: 1, FD: 115, FFD: 115, FPRT: 115, FRT: 115,
			TFT: 115, RPDInc: 115, RBRT: 115, FPF: 1, SFD: 115, LP: 2,
		},
		{Trial: "trial_1", Page: "page_1", WordIdx: 1, Word: "Dy", Skipped: 1},
	}

	var b strings.Builder
	require.NoError(t, WriteMeasures(&b, rows))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(MeasuresColumns, ","), lines[0])
	assert.Equal(t, "trial_1,page_1,0,Mali,0,1,1,115,115,115,115,0,115,0,0,2,0,0,115,0,115,1,0,115", lines[1])
	assert.Equal(t, "trial_1,page_1,1,Dy,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0", lines[2])
}
