// Package chatfic implements the storybasic authoring format: parsing,
// structural validation, and compilation into the distributable
// chatficbasic document.
package chatfic

// Format and version identifiers of the compiled document.
const (
	CompiledFormat  = "chatficbasic"
	CompiledVersion = "1.1"
)

// MediaPrefix is the reserved folder marker for multimedia assets, both in
// submission manifests and in storybasic documents.
const MediaPrefix = "media/"

// Storybasic is the authoring-format document as submitted by writers.
type Storybasic struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Author      string                    `json:"author"`
	Modified    string                    `json:"modified"`
	Episode     int                       `json:"episode,omitempty"`
	Characters  map[string]any            `json:"characters"`
	Handles     map[string]any            `json:"handles,omitempty"`
	Variables   map[string]any            `json:"variables,omitempty"`
	Apps        map[string]map[string]any `json:"apps,omitempty"`
	Pages       []Page                    `json:"pages"`
}

// Page is one branching unit: an ordered run of messages followed by zero or
// more outgoing options.
type Page struct {
	ID       string       `json:"id"`
	Messages []Message    `json:"messages"`
	Options  []PageOption `json:"options,omitempty"`
}

// Message is a single authored dialogue line.
type Message struct {
	Message    string  `json:"message"`
	From       string  `json:"from"`
	Side       int     `json:"side"`
	Chatroom   *string `json:"chatroom,omitempty"`
	App        *string `json:"app,omitempty"`
	Multimedia *string `json:"multimedia,omitempty"`
	Extra      *string `json:"extra,omitempty"`
	Type       *string `json:"type,omitempty"`
}

// PageOption is an outgoing branch of a page. To names the target page id.
type PageOption struct {
	Message string `json:"message"`
	To      string `json:"to"`
}

// Compiled is the distributable chatficbasic document.
type Compiled struct {
	Format  string   `json:"format"`
	Version string   `json:"version"`
	ChatFic Metadata `json:"chatFic"`
	Bubbles []Bubble `json:"bubble"`
}

// Metadata is the top-level story metadata of a compiled document.
type Metadata struct {
	GlobalIdentifier string                    `json:"globalidentifier"`
	ServerSlug       string                    `json:"serverslug"`
	Title            string                    `json:"title"`
	Description      string                    `json:"description"`
	Author           string                    `json:"author"`
	Handles          map[string]any            `json:"handles"`
	Variables        map[string]any            `json:"variables"`
	Apps             map[string]map[string]any `json:"apps"`
	Modified         string                    `json:"modified"`
	Episode          int                       `json:"episode"`
	Characters       map[string]any            `json:"characters"`
}

// Bubble is one flattened, globally-indexed unit of dialogue or choice.
type Bubble struct {
	MessageIndex int            `json:"messageindex"`
	Message      *string        `json:"message"`
	From         *string        `json:"from"`
	Side         int            `json:"side"`
	App          *string        `json:"app"`
	Chatroom     string         `json:"chatroom"`
	Multimedia   *string        `json:"multimedia,omitempty"`
	Extra        *string        `json:"extra,omitempty"`
	Type         *string        `json:"type,omitempty"`
	Options      []BubbleOption `json:"options,omitempty"`
	Sentiment    string         `json:"sentiment,omitempty"`
}

// BubbleOption is one choice on a bubble. To is the global message index of
// the first bubble of the target page.
type BubbleOption struct {
	Text *string `json:"text"`
	To   int     `json:"to"`
}
