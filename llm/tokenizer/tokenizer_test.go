package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_CountTokens(t *testing.T) {
	e := NewEstimatorTokenizer("any-model", 0)

	t.Run("empty text", func(t *testing.T) {
		n, err := e.CountTokens("")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("ascii text", func(t *testing.T) {
		// 40 ASCII chars at ~4 chars/token
		n, err := e.CountTokens("this is a plain english sentence o k?!..")
		require.NoError(t, err)
		assert.Equal(t, 10, n)
	})

	t.Run("never zero for non-empty", func(t *testing.T) {
		n, err := e.CountTokens("a")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("cjk counted denser", func(t *testing.T) {
		ascii, _ := e.CountTokens("abcd")
		cjk, _ := e.CountTokens("研究方法论综")
		assert.Greater(t, cjk, ascii)
	})
}

func TestEstimator_CountMessages(t *testing.T) {
	e := NewEstimatorTokenizer("any-model", 0)
	msgs := []Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "what is the answer"},
	}
	n, err := e.CountMessages(msgs)
	require.NoError(t, err)
	// per-message overhead (4 each) + conversation end (3) + content tokens
	assert.Greater(t, n, 11)
}

func TestEstimator_Defaults(t *testing.T) {
	e := NewEstimatorTokenizer("m", 0)
	assert.Equal(t, 4096, e.MaxTokens())
	assert.Equal(t, "estimator", e.Name())
}

func TestRegistry(t *testing.T) {
	est := NewEstimatorTokenizer("custom-model", 1000)
	RegisterTokenizer("custom-model", est)

	t.Run("exact match", func(t *testing.T) {
		got, err := GetTokenizer("custom-model")
		require.NoError(t, err)
		assert.Equal(t, est, got)
	})

	t.Run("prefix match", func(t *testing.T) {
		got, err := GetTokenizer("custom-model-v2")
		require.NoError(t, err)
		assert.Equal(t, est, got)
	})

	t.Run("unknown model errors", func(t *testing.T) {
		_, err := GetTokenizer("nope")
		assert.Error(t, err)
	})

	t.Run("fallback to estimator", func(t *testing.T) {
		got := GetTokenizerOrEstimator("totally-unknown")
		assert.Equal(t, "estimator", got.Name())
	})
}

func TestTiktokenEncodingSelection(t *testing.T) {
	tk, err := NewTiktokenTokenizer("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, 128000, tk.MaxTokens())
	assert.Equal(t, "tiktoken[o200k_base]", tk.Name())

	// 未知模型落到默认编码
	tk, err = NewTiktokenTokenizer("mystery")
	require.NoError(t, err)
	assert.Equal(t, "tiktoken[cl100k_base]", tk.Name())
	assert.Equal(t, 8192, tk.MaxTokens())
}
