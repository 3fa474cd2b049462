package chatfic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnusedMediaPrefix is the fixed prefix of warnings reporting a multimedia
// asset that was declared in the manifest but never referenced by the story.
// Callers key on this prefix to filter such assets out of upload contracts.
const UnusedMediaPrefix = "Unused multimedia file: "

// Issue is a single validation finding with a human-readable message.
type Issue struct {
	Message string `json:"message"`
}

// Result is the outcome of validating a storybasic document.
type Result struct {
	Valid    bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// UnusedMedia returns the asset names flagged by unused-media warnings.
func (r Result) UnusedMedia() []string {
	var names []string
	for _, w := range r.Warnings {
		if strings.HasPrefix(w.Message, UnusedMediaPrefix) {
			names = append(names, strings.TrimPrefix(w.Message, UnusedMediaPrefix))
		}
	}
	return names
}

// ErrorMessages returns all error messages in order.
func (r Result) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// Validate checks a raw storybasic document against the structural schema and
// the declared multimedia asset names (folder prefix already stripped). It is
// pure and never panics on malformed input: parse failures become validation
// errors.
func Validate(text string, media []string) Result {
	var res Result

	var doc Storybasic
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&doc); err != nil {
		res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("invalid storybasic json: %v", err)})
		return res
	}

	if doc.Title == "" {
		res.Errors = append(res.Errors, Issue{Message: "missing required field: title"})
	}
	if doc.Description == "" {
		res.Errors = append(res.Errors, Issue{Message: "missing required field: description"})
	}
	if doc.Author == "" {
		res.Errors = append(res.Errors, Issue{Message: "missing required field: author"})
	}
	if doc.Modified == "" {
		res.Errors = append(res.Errors, Issue{Message: "missing required field: modified"})
	}
	if len(doc.Characters) == 0 {
		res.Errors = append(res.Errors, Issue{Message: "missing required field: characters"})
	}
	if len(doc.Pages) == 0 {
		res.Errors = append(res.Errors, Issue{Message: "story has no pages"})
	}

	declared := make(map[string]bool, len(media))
	for _, name := range media {
		declared[name] = true
	}
	referenced := make(map[string]bool)

	pageIDs := make(map[string]bool, len(doc.Pages))
	for _, page := range doc.Pages {
		if page.ID == "" {
			res.Errors = append(res.Errors, Issue{Message: "page with empty id"})
			continue
		}
		if pageIDs[page.ID] {
			res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("duplicate page id: %s", page.ID)})
		}
		pageIDs[page.ID] = true
	}

	for _, page := range doc.Pages {
		for i, msg := range page.Messages {
			if msg.From == "" {
				res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("page %s: message %d is missing 'from'", page.ID, i+1)})
			}
			if msg.Message == "" && msg.Multimedia == nil {
				res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("page %s: message %d has neither text nor multimedia", page.ID, i+1)})
			}
			if msg.Multimedia != nil {
				name := strings.TrimPrefix(*msg.Multimedia, MediaPrefix)
				referenced[name] = true
				if !declared[name] {
					res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("multimedia file not declared: %s", name)})
				}
			}
		}
		for _, opt := range page.Options {
			if opt.To == "" {
				res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("page %s: option with empty target", page.ID)})
				continue
			}
			if !pageIDs[opt.To] {
				res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("page %s: option targets unknown page: %s", page.ID, opt.To)})
			}
		}
	}

	for _, app := range doc.Apps {
		if bg, ok := app["background"].(string); ok && bg != "" {
			name := strings.TrimPrefix(bg, MediaPrefix)
			referenced[name] = true
			if !declared[name] {
				res.Errors = append(res.Errors, Issue{Message: fmt.Sprintf("app background not declared: %s", name)})
			}
		}
	}

	for _, name := range media {
		if !referenced[name] {
			res.Warnings = append(res.Warnings, Issue{Message: UnusedMediaPrefix + name})
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}
