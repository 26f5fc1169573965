package prompt

import (
	"fmt"
	"strings"
)

// MainCategories is the fixed candidate set the model must choose from.
// The converter does not enforce membership; the prompt is the contract.
var MainCategories = []string{
	"Finance & Insurance",
	"Real Estate",
	"Education",
	"Beauty & Cosmetics",
	"Health & Pharmaceuticals",
	"Hospitals & Clinics",
	"Business Services",
	"Apps & Software",
	"Jobs & Recruiting",
	"Lifestyle Services",
	"Consumer Electronics",
	"Food & Beverage",
	"Restaurants & Dining",
	"Travel & Leisure",
	"Fashion",
	"Entertainment",
	"Household Goods",
	"Sports & Outdoors",
	"Automotive",
	"Housing & Interior",
	"Pets",
	"Gambling & Lotteries",
	"Government & Public Services",
}

// GetSystemPrompt returns the classification instructions shared by all
// providers.
func GetSystemPrompt() string {
	return fmt.Sprintf(`You are a website analysis expert. Analyze the content of the website you are given and identify the business category it belongs to.

Candidate main categories: %s

Respond with a single JSON object in this exact shape:
{
  "main_category": "the single best match from the candidate list",
  "sub_categories": [
    {"name": "subcategory", "confidence": 0.0}
  ],
  "confidence": 0.0,
  "description": "a concise description of the products or services offered (max 100 characters)",
  "target_audience": "the likely target users or customer base (max 100 characters)",
  "value_proposition": "the main value proposition the site presents (max 100 characters)"
}

List at most 5 sub_categories, each with a confidence between 0.0 and 1.0.
Consider the site's primary purpose, the nature of its products or services,
industry terminology in the copy, and any competitors it mentions.
Respond with JSON only, no extra commentary.`, strings.Join(MainCategories, ", "))
}

// GetUserPrompt builds the per-request prompt. Content is truncated to
// maxChars so large pages do not blow the provider's context window.
func GetUserPrompt(url, content string, maxChars int) string {
	return fmt.Sprintf("Website URL: %s\nWebsite content:\n%s", url, Truncate(content, maxChars))
}

// Truncate cuts s at n bytes; n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
