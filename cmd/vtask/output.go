package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/voicetask/internal/service"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return checkFormat(format)
}

func writeResponse(w io.Writer, format string, resp *service.Response) error {
	if format != formatText {
		return writeStructured(w, format, resp)
	}

	d := resp.Task
	row := func(label, value string) {
		fmt.Fprintf(w, "%-9s %s\n", label+":", value)
	}
	row("Title", d.Title)
	row("Priority", string(d.Priority))
	row("Category", string(d.Category))
	if d.DueDate != nil {
		due := d.DueDate.Format("Mon Jan 2 2006 15:04")
		if phrase := resp.Analysis.Deadline.Phrase(); phrase != "" {
			due += fmt.Sprintf(" (%q)", phrase)
		}
		row("Due", due)
	} else {
		row("Due", "none")
	}
	if d.ContactPerson != "" {
		row("Contact", d.ContactPerson)
	}
	if resp.Record != nil {
		row("Saved", resp.Record.ID)
	}
	for _, warn := range resp.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}

// inputText joins args, or reads stdin when args is empty or "-".
func inputText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}
