// Package dialects holds the helpers shared by every wire dialect: HTTP
// error mapping onto the llm error taxonomy, error-body reading, tool
// schema sanitization, and tool-call argument normalization. The concrete
// dialect strategy pairs live in the subpackages.
package dialects
