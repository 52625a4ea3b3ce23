package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

type analyzeTaskInput struct {
	Text string `json:"text" jsonschema:"free-form task description, typed or transcribed"`
}

type deadlineOutput struct {
	HasDeadline bool   `json:"hasDeadline"`
	Date        string `json:"date,omitempty" jsonschema:"resolved deadline, RFC 3339"`
	Text        string `json:"text,omitempty" jsonschema:"phrase the deadline was read from"`
}

type analysisOutput struct {
	Priority      string         `json:"priority" jsonschema:"High, Medium or Low"`
	Category      string         `json:"category"`
	Deadline      deadlineOutput `json:"deadline"`
	ContactPerson string         `json:"contactPerson,omitempty"`
}

type processInputInput struct {
	Text   string `json:"text" jsonschema:"free-form task description"`
	Source string `json:"source,omitempty" jsonschema:"voice or typed (default typed)"`
	Title  string `json:"title,omitempty" jsonschema:"explicit title; derived from the text when empty"`
}

type draftOutput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	DueDate       string `json:"dueDate,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
}

type processInputOutput struct {
	Task        draftOutput    `json:"task"`
	NLPAnalysis analysisOutput `json:"nlpAnalysis"`
	RecordID    string         `json:"recordId,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_task",
		Description: "Extract priority, category, deadline and contact person from a task description",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeTaskInput) (*mcp.CallToolResult, analysisOutput, error) {
		done := s.metrics.track(ctx, "analyze_task")
		res := s.processor.Analyze(ctx, args.Text)
		done(nil)
		return nil, toAnalysisOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "process_input",
		Description: "Validate a task description and assemble a structured task draft",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args processInputInput) (*mcp.CallToolResult, processInputOutput, error) {
		done := s.metrics.track(ctx, "process_input")

		resp, err := s.processor.ProcessInput(ctx, s.userID, service.Request{
			Text:   args.Text,
			Source: task.Source(args.Source),
			Title:  args.Title,
		})
		done(err)
		if err != nil {
			s.logger.Debug(ctx, "process_input failed", zap.Error(err))
			return nil, processInputOutput{}, err
		}

		out := processInputOutput{
			Task:        toDraftOutput(resp.Task),
			NLPAnalysis: toAnalysisOutput(resp.Analysis),
			Warnings:    resp.Warnings,
		}
		if resp.Record != nil {
			out.RecordID = resp.Record.ID
		}
		return nil, out, nil
	})
}

func toAnalysisOutput(res extraction.Result) analysisOutput {
	out := analysisOutput{
		Priority:      string(res.Priority),
		Category:      string(res.Category),
		ContactPerson: res.ContactPerson,
		Deadline: deadlineOutput{
			HasDeadline: res.Deadline.HasDeadline,
			Text:        res.Deadline.Phrase(),
		},
	}
	if res.Deadline.Date != nil {
		out.Deadline.Date = res.Deadline.Date.Format(time.RFC3339)
	}
	return out
}

func toDraftOutput(d task.Draft) draftOutput {
	out := draftOutput{
		Title:         d.Title,
		Description:   d.Description,
		Priority:      string(d.Priority),
		Category:      string(d.Category),
		ContactPerson: d.ContactPerson,
	}
	if d.DueDate != nil {
		out.DueDate = d.DueDate.Format(time.RFC3339)
	}
	return out
}
