package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// defaultCity is the fallback target when a forecast request carries no
// extractable city.
const defaultCity = "北京"

// canonicalForecastInstruction replaces the step description when a
// forecast step has no extractable city, steering the tool loop to the
// browser-based procedure.
const canonicalForecastInstruction = "Open https://wttr.in/<city>?format=j1 in the browser and extract tomorrow's weather forecast from the page content."

// forecastStepDescription is the single canonical step a forecast
// request collapses the whole plan into.
func forecastStepDescription(city string) string {
	return fmt.Sprintf("Open https://wttr.in/%s?format=j1 with the browser tool and use the 'view' action to extract tomorrow's weather forecast.", city)
}

const executionPromptTmpl = `Current step to execute:
%s

User message:
%s

Attachments:
%s

Respond in this language: %s

Work through the step with your tools. When the step is finished, reply with
a single JSON object: {"success": <bool>, "result": "<what was accomplished>", "attachments": ["<file path>", ...]}`

const createPlanPromptTmpl = `Create a plan for the following request. Reply with a single JSON
object: {"title": "...", "goal": "...", "language": "<two-letter tag>", "steps": [{"id": "1", "description": "..."}, ...]}

Request:
%s

Attachments:
%s`

const updatePlanPromptTmpl = `A step of the current plan just finished. Revise the remaining steps if
the outcome calls for it. Reply with a single JSON object:
{"steps": [{"id": "...", "description": "..."}, ...]} listing only the steps
that still have to run, in order.

Current plan:
%s

Finished step:
%s`

const defaultSystemPrompt = `You are a step execution agent. You receive one step of a larger plan
at a time and carry it out with the tools you are given. Be concise.
Ask the user only when you genuinely cannot proceed without them.`

const defaultPlannerPrompt = `You are a planning agent. Break the user's request into the smallest
sequence of independently executable steps. Never invent steps the
request does not need.`

// PromptManager assembles system prompts from a directory of markdown
// fragments, falling back to built-in defaults when the directory is
// absent.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// promptOrder pins the concatenation order of the known fragments;
// unknown files sort after them alphabetically.
var promptOrder = map[string]int{
	"identity.md":     1,
	"capabilities.md": 2,
	"executor.md":     3,
	"user.md":         4,
}

// GetSystemPrompt returns the executor system prompt: every .md fragment
// except planner.md, joined in a deterministic order.
func (pm *PromptManager) GetSystemPrompt() string {
	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return defaultSystemPrompt
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".md") && f.Name() != "planner.md" {
			names = append(names, f.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		oi, okI := promptOrder[names[i]]
		oj, okJ := promptOrder[names[j]]
		switch {
		case okI && okJ:
			return oi < oj
		case okI:
			return true
		case okJ:
			return false
		}
		return names[i] < names[j]
	})

	var contents []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(pm.Directory, name))
		if err != nil {
			log.Printf("Warning: failed to read prompt file %s: %v", name, err)
			continue
		}
		contents = append(contents, string(data))
	}
	if len(contents) == 0 {
		return defaultSystemPrompt
	}
	return strings.Join(contents, "\n\n---\n\n")
}

// GetPlannerPrompt returns the planner system prompt.
func (pm *PromptManager) GetPlannerPrompt() string {
	data, err := os.ReadFile(filepath.Join(pm.Directory, "planner.md"))
	if err != nil {
		return defaultPlannerPrompt
	}
	return string(data)
}
