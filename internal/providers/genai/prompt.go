package genai

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

func buildGeneratePrompt(prompt, style string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		style = "realistic"
	}
	return fmt.Sprintf(
		"Create a high-quality %s image for social media: %s. "+
			"Make it visually appealing, well-composed, and suitable for social media platforms.",
		style, strings.TrimSpace(prompt))
}

func buildEditPrompt(editPrompt string) string {
	return fmt.Sprintf("Edit this image: %s. Maintain social media quality and appeal.", strings.TrimSpace(editPrompt))
}

func buildCaptionPrompt(platform, tone string) string {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		platform = "general"
	}
	tone = strings.TrimSpace(tone)
	if tone == "" {
		tone = "engaging"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this image and write an %s caption optimized for %s.\n", tone, titleCaser.String(platform))
	b.WriteString("- 1-2 short sentences max.\n")
	b.WriteString("- Include 3-5 relevant hashtags at the end.\n")
	b.WriteString("- Encourage engagement without sounding spammy.\n")
	b.WriteString("Only return the caption text.")
	return b.String()
}
