package words

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDictionary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	wordsContent := "apple\nbanana\nGRAPE\npineapple\n"
	promptsContent := "app:600\nan:1200\nrare:3\nbad-line\n"

	require.NoError(t, os.WriteFile(filepath.Join(dir, "en_US.words"), []byte(wordsContent), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en_US.prompts"), []byte(promptsContent), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := writeTestDictionary(t)
	m, err := Load(dir, []string{"en_US"})
	require.NoError(t, err)

	assert.True(t, m.HasLanguage("en_US"))
	assert.False(t, m.HasLanguage("sv_SE"))
	assert.Equal(t, []string{"en_US"}, m.Languages())
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir(), []string{"en_US"})
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	m, err := Load(writeTestDictionary(t), []string{"en_US"})
	require.NoError(t, err)
	ctx := context.Background()

	valid, err := m.IsValid(ctx, "apple", "en_US")
	require.NoError(t, err)
	assert.True(t, valid)

	// Lookup is case-insensitive both ways
	valid, err = m.IsValid(ctx, "Grape", "en_US")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = m.IsValid(ctx, "notaword", "en_US")
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = m.IsValid(ctx, "apple", "xx_XX")
	assert.Error(t, err)
}

func TestRandomPrompt_Filters(t *testing.T) {
	t.Parallel()

	m, err := Load(writeTestDictionary(t), []string{"en_US"})
	require.NoError(t, err)

	// No filter: any of the three prompts
	prompt, ok := m.RandomPrompt("en_US", 0, 0)
	assert.True(t, ok)
	assert.Contains(t, []string{"app", "an", "rare"}, prompt)

	// minWords filters out the rare prompt
	for range 20 {
		prompt, ok = m.RandomPrompt("en_US", 500, 0)
		require.True(t, ok)
		assert.NotEqual(t, "rare", prompt)
	}

	// maxWords keeps only the rare prompt
	prompt, ok = m.RandomPrompt("en_US", 0, 10)
	require.True(t, ok)
	assert.Equal(t, "rare", prompt)

	// Impossible window: no prompt available
	_, ok = m.RandomPrompt("en_US", 2000, 0)
	assert.False(t, ok)

	// Unknown language
	_, ok = m.RandomPrompt("xx_XX", 0, 0)
	assert.False(t, ok)
}
