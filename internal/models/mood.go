package models

// EmotionOrder is the canonical emotion enumeration. Dominant-emotion ties are
// broken by position in this list.
var EmotionOrder = []string{
	"joy", "trust", "fear", "surprise",
	"sadness", "disgust", "anger", "anticipation",
}

// MoodVector is the emotional fingerprint attached to a message: one intensity
// per named emotion plus overall sentiment and intensity scalars.
type MoodVector struct {
	Emotions  map[string]float64 `json:"emotions"`
	Sentiment float64            `json:"sentiment"`
	Intensity float64            `json:"intensity"`
}

// NeutralMood is the fallback fingerprint used when the classifier is
// unavailable. Creation must never be blocked on classification.
func NeutralMood() MoodVector {
	emotions := map[string]float64{
		"joy":   0.5,
		"trust": 0.5,
	}
	for _, name := range EmotionOrder {
		if _, ok := emotions[name]; !ok {
			emotions[name] = 0.1
		}
	}
	return MoodVector{
		Emotions:  emotions,
		Sentiment: 0,
		Intensity: 0.3,
	}
}

// DominantEmotion returns the argmax over the emotion map.
func (m MoodVector) DominantEmotion() string {
	dominant := ""
	best := -1.0
	for _, name := range EmotionOrder {
		if score := m.Emotions[name]; score > best {
			best = score
			dominant = name
		}
	}
	return dominant
}

// Clamped returns a copy with every value forced into its legal range and
// unknown emotion keys dropped.
func (m MoodVector) Clamped() MoodVector {
	out := MoodVector{
		Emotions:  make(map[string]float64, len(EmotionOrder)),
		Sentiment: clamp(m.Sentiment, -1, 1),
		Intensity: clamp(m.Intensity, 0, 1),
	}
	for _, name := range EmotionOrder {
		out.Emotions[name] = clamp(m.Emotions[name], 0, 1)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
