// Package models lists the OpenAI chat models available to the
// configured API key, for use with the openai enrichment provider.
package models
