// Package mcp exposes the extraction engine as MCP tools over stdio.
//
// Tools:
//   - analyze_task: run the intent extraction engine on text
//   - process_input: validate, analyze and assemble a task draft
package mcp
