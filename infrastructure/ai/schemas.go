package ai

import "github.com/google/generative-ai-go/genai"

// JSON keys ตรงกับ json tag ของ models.* เพื่อ unmarshal ตรงได้

func stringArray(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: desc,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

func understandingSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"core_theme": {Type: genai.TypeString, Description: "The central theme of the thought in a short phrase"},
			"emotion":    {Type: genai.TypeString, Description: "Dominant emotion the person is feeling"},
			"tone":       {Type: genai.TypeString, Description: "Tone the documentary should take"},
			"keywords":   stringArray("3-8 keywords"),
			"summary":    {Type: genai.TypeString, Description: "Two sentence summary"},
		},
		Required: []string{"core_theme", "emotion", "tone", "keywords", "summary"},
	}
}

func perspectiveSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":      {Type: genai.TypeString},
			"thesis":     {Type: genai.TypeString, Description: "One sentence reframing"},
			"essay":      {Type: genai.TypeString, Description: "Short essay, 150-250 words"},
			"key_points": stringArray("3-5 supporting points"),
		},
		Required: []string{"title", "thesis", "essay", "key_points"},
	}
}

func blueprintSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":   {Type: genai.TypeString},
			"logline": {Type: genai.TypeString},
			"scenes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"index":            {Type: genai.TypeInteger},
						"description":      {Type: genai.TypeString, Description: "Concrete visual description of one shot, no dialogue"},
						"mood":             {Type: genai.TypeString},
						"duration_seconds": {Type: genai.TypeInteger},
					},
					Required: []string{"index", "description"},
				},
			},
		},
		Required: []string{"title", "scenes"},
	}
}

func narrationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"lines": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"segment_type": {Type: genai.TypeString, Enum: []string{"validation", "perspective", "agency"}},
						"text":         {Type: genai.TypeString},
					},
					Required: []string{"segment_type", "text"},
				},
			},
		},
		Required: []string{"lines"},
	}
}
