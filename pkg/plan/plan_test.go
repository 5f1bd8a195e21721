package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/schemini/refsync/pkg/index"
	"github.com/schemini/refsync/pkg/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, dir, name string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func buildIndex(t *testing.T, dir string) *index.FolderIndex {
	t.Helper()
	x, err := index.Build(testContext(t), dir, index.Options{BackupSuffix: ".backup"})
	require.NoError(t, err)
	return x
}

var (
	older = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

// 🧪 TestBuildOutdated tests the backup-then-replace classification
func TestBuildOutdated(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "A100_old.txt", older)
	writeFile(t, tgt, "A100_new.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 1)
	act := p.Actions[0]
	assert.Equal(t, plan.Outdated, act.Kind)
	assert.Equal(t, "A100", act.Code)
	require.NotNil(t, act.Source)
	assert.Equal(t, "A100_new.txt", act.Source.FileName)
	assert.Equal(t, filepath.Join(ref, "A100_old.txt"), act.DestPath)
}

// 🧪 TestBuildIPrefixMatch tests that the I-prefix never creates a mismatch
func TestBuildIPrefixMatch(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "I-B200.txt", newer)
	writeFile(t, tgt, "B200.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 1)
	assert.Equal(t, plan.Match, p.Actions[0].Kind)
	assert.Equal(t, "B200", p.Actions[0].Code)
}

// 🧪 TestBuildEqualTimesAreMatch tests the no-update-under-uncertainty rule
func TestBuildEqualTimesAreMatch(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "E500.txt", newer)
	writeFile(t, tgt, "E500_copy.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 1)
	assert.Equal(t, plan.Match, p.Actions[0].Kind)
}

// 🧪 TestBuildNewerReferenceIsMatch tests that a newer reference never updates
func TestBuildNewerReferenceIsMatch(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "E500.txt", newer)
	writeFile(t, tgt, "E500.txt", older)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 1)
	assert.Equal(t, plan.Match, p.Actions[0].Kind)
}

// 🧪 TestBuildAmbiguous tests that duplicate reference records win over
// the match/outdated classification
func TestBuildAmbiguous(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "C300_v1.txt", older)
	writeFile(t, ref, "C300_v2.txt", newer)
	writeFile(t, tgt, "C300.txt", newer.AddDate(0, 1, 0))

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 1)
	assert.Equal(t, plan.Ambiguous, p.Actions[0].Kind)
	assert.Equal(t, "C300", p.Actions[0].Code)
	assert.Empty(t, p.Actions[0].DestPath)
}

// 🧪 TestBuildBackupsAreNotAmbiguous tests that backup artifacts never
// count as current records
func TestBuildBackupsAreNotAmbiguous(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "C300.txt", older)
	writeFile(t, ref, "C300.txt.backup", older)
	writeFile(t, tgt, "C300.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 1)
	assert.Equal(t, plan.Outdated, p.Actions[0].Kind)
}

// 🧪 TestBuildMissingAndExtra tests the one-sided classifications
func TestBuildMissingAndExtra(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "F600.txt", newer)
	writeFile(t, tgt, "G700.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})

	require.Len(t, p.Actions, 2)
	assert.Equal(t, plan.ExtraInReference, p.Actions[0].Kind)
	assert.Equal(t, "F600", p.Actions[0].Code)
	assert.Equal(t, plan.MissingInReference, p.Actions[1].Kind)
	assert.Equal(t, "G700", p.Actions[1].Code)
	require.NotNil(t, p.Actions[1].Source)
	assert.Equal(t, "G700.txt", p.Actions[1].Source.FileName)
}

// 🧪 TestBuildCodeFilter tests restriction to selected codes
func TestBuildCodeFilter(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "D400.txt", older)
	writeFile(t, ref, "E500.txt", older)
	writeFile(t, tgt, "D400.txt", newer)
	writeFile(t, tgt, "E500.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{
		CodeFilter: map[string]struct{}{"D400": {}},
	})

	require.Len(t, p.Actions, 1)
	assert.Equal(t, "D400", p.Actions[0].Code)
	assert.Equal(t, plan.Outdated, p.Actions[0].Kind)
}

// 🧪 TestBuildDeterminism tests ordering and idempotence
func TestBuildDeterminism(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	// Insertion order deliberately scrambled relative to code order.
	writeFile(t, ref, "Z900.txt", newer)
	writeFile(t, ref, "A100.txt", newer)
	writeFile(t, tgt, "M500.txt", newer)
	writeFile(t, tgt, "B200.txt", newer)

	refIdx := buildIndex(t, ref)
	tgtIdx := buildIndex(t, tgt)

	first := plan.Build(refIdx, tgtIdx, plan.Options{})
	second := plan.Build(refIdx, tgtIdx, plan.Options{})

	var codes []string
	for _, a := range first.Actions {
		codes = append(codes, a.Code)
	}
	assert.Equal(t, []string{"A100", "B200", "M500", "Z900"}, codes)
	assert.Equal(t, first.Actions, second.Actions)
}

// 🧪 TestCounts tests the per-kind tally
func TestCounts(t *testing.T) {
	ref := t.TempDir()
	tgt := t.TempDir()
	writeFile(t, ref, "A100.txt", older)
	writeFile(t, ref, "B200.txt", newer)
	writeFile(t, tgt, "A100.txt", newer)
	writeFile(t, tgt, "C300.txt", newer)

	p := plan.Build(buildIndex(t, ref), buildIndex(t, tgt), plan.Options{})
	counts := p.Counts()

	assert.Equal(t, 1, counts[plan.Outdated])
	assert.Equal(t, 1, counts[plan.ExtraInReference])
	assert.Equal(t, 1, counts[plan.MissingInReference])
	assert.Equal(t, 0, counts[plan.Match])
}
