package chatfic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Compile transforms a raw storybasic document into the distributable
// chatficbasic document for the given global identifier.
//
// Pages are flattened into a single bubble list with 1-based global message
// indices. A page with exactly one outgoing option folds that option into the
// last emitted bubble; a page with several options emits one extra choice
// bubble. Option targets are authored as page ids and rewritten in a second
// pass to the index of the first bubble emitted for the target page, since
// indices are only knowable once the whole document has been flattened.
func Compile(text, globalID, serverSlug string) (*Compiled, error) {
	var doc Storybasic
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse storybasic: %w", err)
	}

	episode := doc.Episode
	if episode == 0 {
		episode = 1
	}
	apps := doc.Apps
	if apps == nil {
		apps = map[string]map[string]any{}
	}
	for _, app := range apps {
		if bg, ok := app["background"].(string); ok {
			app["background"] = strings.TrimPrefix(bg, MediaPrefix)
		}
	}
	handles := doc.Handles
	if handles == nil {
		handles = map[string]any{}
	}
	variables := doc.Variables
	if variables == nil {
		variables = map[string]any{}
	}

	out := &Compiled{
		Format:  CompiledFormat,
		Version: CompiledVersion,
		ChatFic: Metadata{
			GlobalIdentifier: globalID,
			ServerSlug:       serverSlug,
			Title:            doc.Title,
			Description:      doc.Description,
			Author:           doc.Author,
			Handles:          handles,
			Variables:        variables,
			Apps:             apps,
			Modified:         doc.Modified,
			Episode:          episode,
			Characters:       doc.Characters,
		},
	}

	// First bubble index per page, recorded before the page emits anything so
	// that branch targets land on the page's opening bubble.
	firstIndex := make(map[string]int, len(doc.Pages))
	// Option targets still holding page ids; resolved after flattening.
	type pendingTarget struct {
		bubble int // index into out.Bubbles
		option int
		pageID string
	}
	var pending []pendingTarget

	index := 1
	for _, page := range doc.Pages {
		firstIndex[page.ID] = index
		lastChatroom := ""
		for _, msg := range page.Messages {
			lastChatroom = "-"
			if msg.Chatroom != nil {
				lastChatroom = *msg.Chatroom
			}
			text := msg.Message
			from := msg.From
			bubble := Bubble{
				MessageIndex: index,
				Message:      &text,
				From:         &from,
				Side:         msg.Side,
				App:          msg.App,
				Chatroom:     lastChatroom,
				Extra:        msg.Extra,
				Type:         msg.Type,
			}
			if msg.Multimedia != nil {
				stripped := strings.TrimPrefix(*msg.Multimedia, MediaPrefix)
				bubble.Multimedia = &stripped
			}
			out.Bubbles = append(out.Bubbles, bubble)
			index++
		}

		switch {
		case len(page.Options) == 1 && len(out.Bubbles) > 0:
			// Fold the single "continue" option into the page's last bubble
			// instead of spending a bubble on it.
			last := len(out.Bubbles) - 1
			out.Bubbles[last].Options = []BubbleOption{{Text: nil, To: 0}}
			pending = append(pending, pendingTarget{bubble: last, option: 0, pageID: page.Options[0].To})
		case len(page.Options) >= 1:
			bubble := Bubble{
				MessageIndex: index,
				Message:      nil,
				From:         nil,
				Side:         1,
				App:          nil,
				Chatroom:     lastChatroom,
			}
			for i, opt := range page.Options {
				text := opt.Message
				bubble.Options = append(bubble.Options, BubbleOption{Text: &text, To: 0})
				pending = append(pending, pendingTarget{bubble: len(out.Bubbles), option: i, pageID: opt.To})
			}
			out.Bubbles = append(out.Bubbles, bubble)
			index++
		}
	}

	for _, p := range pending {
		target, ok := firstIndex[p.pageID]
		if !ok {
			return nil, fmt.Errorf("option targets unknown page: %s", p.pageID)
		}
		out.Bubbles[p.bubble].Options[p.option].To = target
	}

	return out, nil
}
