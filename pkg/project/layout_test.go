package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	l := LayoutForVideo("data", filepath.Join("videos", "lecture01.mp4"))

	assert.Equal(t, "lecture01", l.Name)
	assert.Equal(t, filepath.Join("data", "lecture01"), l.Dir())
	assert.Equal(t, filepath.Join("data", "lecture01", "denoised.wav"), l.DenoisedAudio())
	assert.Equal(t, filepath.Join("data", "lecture01", "denoised_asr_results.json"), l.ASRResults())
	assert.Equal(t, filepath.Join("data", "lecture01", "denoised_translated_results.json"), l.TranslatedResults())
	assert.Equal(t, filepath.Join("data", "lecture01", "tts_output"), l.TTSOutputDir())
	assert.Equal(t, filepath.Join("data", "lecture01", "lecture01_final.mp4"), l.FinalVideo())
	assert.Equal(t, filepath.Join("data", "lecture01", "lecture01_synthesized.mp4"), l.SynthesizedVideo())
}

func TestIsVideoFile(t *testing.T) {
	assert.True(t, IsVideoFile("a.mp4"))
	assert.True(t, IsVideoFile("B.MKV"))
	assert.False(t, IsVideoFile("a.wav"))
	assert.False(t, IsVideoFile("a.json"))
}

func TestInspect(t *testing.T) {
	dataDir := t.TempDir()
	l := NewLayout(dataDir, "lecture01")
	require.NoError(t, os.MkdirAll(l.Dir(), 0755))

	// 空项目：所有阶段未完成
	status := Inspect(l)
	assert.False(t, status.HasVideo)
	assert.False(t, status.HasTranslation)
	assert.Equal(t, 0, status.TTSCount)

	// 逐步补齐产物
	require.NoError(t, os.WriteFile(l.VideoPath(".mp4"), []byte("v"), 0644))
	require.NoError(t, os.WriteFile(l.DenoisedAudio(), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(l.TranslatedResults(), []byte("{}"), 0644))
	require.NoError(t, os.MkdirAll(l.TTSOutputDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(l.TTSOutputDir(), "tts_0_1000_abcd1234.wav"), []byte("w"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(l.TTSOutputDir(), "readme.txt"), []byte("x"), 0644))

	status = Inspect(l)
	assert.True(t, status.HasVideo)
	assert.True(t, status.HasDenoised)
	assert.False(t, status.HasASR)
	assert.True(t, status.HasTranslation)
	assert.Equal(t, 1, status.TTSCount)
	assert.False(t, status.HasFinal)

	video, err := l.FindVideo()
	require.NoError(t, err)
	assert.Equal(t, l.VideoPath(".mp4"), video)
}
