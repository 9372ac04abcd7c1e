package models

import "testing"

func TestNeutralMood(t *testing.T) {
	t.Parallel()

	m := NeutralMood()
	if m.Sentiment != 0 {
		t.Fatalf("sentiment = %v, want 0", m.Sentiment)
	}
	if m.Intensity != 0.3 {
		t.Fatalf("intensity = %v, want 0.3", m.Intensity)
	}
	if m.Emotions["joy"] != 0.5 || m.Emotions["trust"] != 0.5 {
		t.Fatalf("joy/trust = %v/%v, want 0.5/0.5", m.Emotions["joy"], m.Emotions["trust"])
	}
	for _, name := range []string{"fear", "surprise", "sadness", "disgust", "anger", "anticipation"} {
		if m.Emotions[name] != 0.1 {
			t.Fatalf("%s = %v, want 0.1", name, m.Emotions[name])
		}
	}
	if len(m.Emotions) != len(EmotionOrder) {
		t.Fatalf("got %d emotions, want %d", len(m.Emotions), len(EmotionOrder))
	}
}

func TestDominantEmotion(t *testing.T) {
	t.Parallel()

	m := MoodVector{Emotions: map[string]float64{
		"joy": 0.2, "sadness": 0.9, "anger": 0.3,
	}}
	if got := m.DominantEmotion(); got != "sadness" {
		t.Fatalf("DominantEmotion = %q, want sadness", got)
	}
}

func TestDominantEmotionTieBreak(t *testing.T) {
	t.Parallel()

	// ties resolve to the first emotion in the canonical order
	m := MoodVector{Emotions: map[string]float64{
		"anger": 0.7, "fear": 0.7, "trust": 0.7,
	}}
	if got := m.DominantEmotion(); got != "trust" {
		t.Fatalf("DominantEmotion = %q, want trust", got)
	}

	neutral := NeutralMood()
	if got := neutral.DominantEmotion(); got != "joy" {
		t.Fatalf("neutral DominantEmotion = %q, want joy", got)
	}
}

func TestClamped(t *testing.T) {
	t.Parallel()

	m := MoodVector{
		Emotions: map[string]float64{
			"joy":     1.4,
			"sadness": -0.2,
			"bogus":   0.9,
		},
		Sentiment: -3,
		Intensity: 2,
	}.Clamped()

	if m.Emotions["joy"] != 1 {
		t.Fatalf("joy = %v, want clamped to 1", m.Emotions["joy"])
	}
	if m.Emotions["sadness"] != 0 {
		t.Fatalf("sadness = %v, want clamped to 0", m.Emotions["sadness"])
	}
	if _, ok := m.Emotions["bogus"]; ok {
		t.Fatal("unknown emotion key survived Clamped")
	}
	if m.Sentiment != -1 {
		t.Fatalf("sentiment = %v, want -1", m.Sentiment)
	}
	if m.Intensity != 1 {
		t.Fatalf("intensity = %v, want 1", m.Intensity)
	}
	if len(m.Emotions) != len(EmotionOrder) {
		t.Fatalf("got %d emotions, want full set of %d", len(m.Emotions), len(EmotionOrder))
	}
}
