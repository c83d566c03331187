package catalog

import "github.com/samber/lo"

const scriptBase = "The video will be {duration} seconds long; divide your script into {segments} segments of approximately {segment_sec} seconds each. " +
	"Each segment should be approximately 15-25 words, providing detailed and continuous narration to fill its {segment_sec}-second duration with spoken content, not silence. " +
	"Label each section clearly as {labels}. "

func Default() Catalog {
	minimaxSpeech := map[string]any{
		"speed":                 1.0,
		"pitch":                 0.0,
		"volume":                1.0,
		"bitrate":               128000,
		"channel":               "mono",
		"sample_rate":           32000,
		"language_boost":        "English",
		"english_normalization": true,
	}
	turbo := Model{Name: "MiniMax Speech-02-Turbo", UsesVoice: true}.WithParams(minimaxSpeech)
	turbo["speed"] = 1.1

	return Catalog{
		Text: map[string]Model{
			"anthropic/claude-4-sonnet":      {Name: "Claude 4 Sonnet"},
			"anthropic/claude-opus-4":        {Name: "Claude Opus 4"},
			"anthropic/claude-haiku-3.5":     {Name: "Claude Haiku 3.5"},
			"openai/gpt-4.1":                 {Name: "GPT-4.1"},
			"openai/gpt-4.1-nano":            {Name: "GPT-4.1 Nano"},
			"meta-llama/llama-3-8b-instruct": {Name: "Llama 3 8B Instruct"},
			"meta/llama-4-maverick-instruct": {Name: "Llama 4 Maverick Instruct"},
		},
		Speech: map[string]Model{
			"minimax/speech-02-turbo": {Name: "MiniMax Speech-02-Turbo", UsesVoice: true, Params: turbo},
			"minimax/speech-02-hd":    {Name: "MiniMax Speech-02-HD", UsesVoice: true, Params: Model{}.WithParams(minimaxSpeech)},
			"jaaari/kokoro-82m":       {Name: "Kokoro-82M", Params: map[string]any{"speed": 1.0}},
			"replicate/openvoice-v2":  {Name: "OpenVoice v2", Params: map[string]any{"speed": 1.0}},
		},
		Video: map[string]Model{
			"luma/ray-flash-2-540p": {Name: "Luma Ray Flash 2 (540p)", Params: map[string]any{
				"num_frames":          120,
				"fps":                 24,
				"guidance":            3.0,
				"num_inference_steps": 30,
			}},
			"google/veo-3":              {Name: "Google Veo 3", Params: map[string]any{"fps": 24, "quality": 10}},
			"google/veo-2":              {Name: "Google Veo 2", Params: map[string]any{"fps": 24, "quality": 7}},
			"minimax/video-01-director": {Name: "Minimax Video-01-Director", Params: map[string]any{"fps": 24, "num_inference_steps": 50}},
			"wan-video/wan-2.1-1.3b":    {Name: "WAN 2.1 1.3B"},
		},
		Music: map[string]Model{
			"google/lyria-2":    {Name: "Google Lyria 2"},
			"meta/musicgen":     {Name: "Meta MusicGen (Melody)", Params: map[string]any{"duration": 10.0, "model_version": "melody"}},
			"lucataco/ace-step": {Name: "ACE-Step"},
		},
		Voices: map[string]string{
			"Wise Woman":         "Wise_Woman",
			"Friendly Person":    "Friendly_Person",
			"Inspirational Girl": "Inspirational_girl",
			"Deep Voice Man":     "Deep_Voice_Man",
			"Calm Woman":         "Calm_Woman",
			"Casual Guy":         "Casual_Guy",
			"Lively Girl":        "Lively_Girl",
			"Patient Man":        "Patient_Man",
			"Young Knight":       "Young_Knight",
			"Determined Man":     "Determined_Man",
			"Lovely Girl":        "Lovely_Girl",
			"Decent Boy":         "Decent_Boy",
			"Imposing Manner":    "Imposing_Manner",
			"Elegant Man":        "Elegant_Man",
			"Abbess":             "Abbess",
			"Sweet Girl 2":       "Sweet_Girl_2",
			"Exuberant Girl":     "Exuberant_Girl",
		},
		Emotions: []string{"auto", "happy", "sad", "angry", "surprised", "fearful", "disgusted"},
		Styles:   []string{"Documentary", "Cinematic", "Educational", "Modern", "Nature", "Scientific"},
		Variants: map[string]Variant{
			"educational": {
				Script: "You are an expert video scriptwriter. Write a clear, engaging, thematically consistent voiceover script for a {duration}-second educational video titled '{topic}'. " +
					scriptBase +
					"Make sure the {segments} segments tell a cohesive, progressive story that builds toward a compelling conclusion. " +
					"Use vivid, concrete language that translates well to visuals. Include specific details, numbers, or comparisons when relevant. " +
					"Write in a conversational tone that keeps viewers hooked. Avoid generic statements.",
				Visual: "Cinematic {shot} for educational video about '{topic}'. Style: {style}, clean, professional, well-lit. Camera movement: smooth, purposeful. No text overlays. Visual content: {segment}.",
				Music:  "Background music for a cohesive, {duration}-second educational video about {topic}. Light, non-distracting, slightly cinematic tone.",
			},
			"advertisement": {
				Script: "You are an expert video scriptwriter. Write a compelling, persuasive script for a {duration}-second advertisement about '{topic}'. " +
					scriptBase +
					"Focus on benefits, problem-solution, and a clear call to action. Each segment should highlight a key feature, benefit, or evoke a positive emotion. " +
					"The final segment should include a strong call to action. Use a professional, enticing, and slightly urgent tone. Avoid generic statements.",
				Visual: "Cinematic {shot} for dynamic, visually appealing shots for a product/service advertisement about '{topic}'. Highlight features. Style: {style}, modern, vibrant, clean, commercial-ready. Camera movement: engaging, product-focused. No text overlays. Visual content: {segment}.",
				Music:  "Upbeat, modern, and catchy background music for a commercial advertisement about {topic}. Energetic and positive tone.",
			},
			"trailer": {
				Script: "You are an expert video scriptwriter. Write a dramatic, suspenseful script for a {duration}-second movie trailer for a film titled '{topic}'. " +
					scriptBase +
					"Each segment should introduce elements of the plot, characters, or rising conflict, building suspense. " +
					"The final segment should be a compelling, open-ended hook that leaves the audience wanting more. " +
					"Use evocative language, questions, and a fast-paced, intense tone. Build anticipation.",
				Visual: "Cinematic {shot} for epic, dramatic, cinematic shots for a movie trailer about '{topic}'. Emphasize tension, conflict, character expressions. Style: {style}, dark, moody, high-contrast, blockbuster film. Camera movement: intense, sweeping, purposeful. No text overlays. Visual content: {segment}.",
				Music:  "Dramatic, suspenseful, and epic background music for a movie trailer about {topic}. Build tension and excitement with orchestral elements.",
			},
			"ad": {
				Script: "You are an expert advertising copywriter. Write a compelling, persuasive {duration}-second video ad script for '{topic}'. " +
					"Create a {segments}-segment script ({segment_sec} seconds each): open with a hook or relatable problem, introduce the product as the solution, " +
					"highlight the key benefits, and close with a strong call to action with urgency. " +
					"Keep each segment to 6-8 words maximum for clear delivery. Make it persuasive and memorable. Label each section as {labels}.",
				Visual: "Commercial ad scene: {style}. Demonstrating benefits of {topic} in action. {segment}",
				Music:  "Commercial ad background music: {style}. {duration}-second instrumental track for {topic} advertisement. Professional quality, suitable for TV commercial.",
				Scenes: []string{
					"Commercial ad opening scene: {style}. Scene showing the problem or hook for {topic}. {segment}",
					"Commercial ad scene: {style}. Product showcase for {topic}, revealing the solution. {segment}",
					"Commercial ad scene: {style}. Demonstrating benefits of {topic} in action. {segment}",
					"Commercial ad finale: {style}. Strong call-to-action scene for {topic}. {segment}",
				},
			},
		},
		Defaults: Defaults{
			TextModel:   "anthropic/claude-4-sonnet",
			SpeechModel: "minimax/speech-02-turbo",
			VideoModel:  "luma/ray-flash-2-540p",
			MusicModel:  "google/lyria-2",
			Voice:       "Wise Woman",
			Emotion:     "auto",
			Variant:     "educational",
			Style:       "Documentary",

			NarrationVolume: lo.ToPtr(1.2),
			LeadInSec:       lo.ToPtr(2.0),
			MusicVolume:     lo.ToPtr(0.3),
			MusicFadeInSec:  lo.ToPtr(0.5),
			MusicFadeOutSec: lo.ToPtr(2.5),
		},
	}
}
