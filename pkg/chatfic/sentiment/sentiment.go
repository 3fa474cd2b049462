// Package sentiment assigns a mood label to dialogue lines of a compiled
// chatfic document. A fixed lexical table of expressive tokens is consulted
// first; lines with no lexical match fall through to a TF-IDF naive Bayes
// classifier trained from an embedded seed corpus.
package sentiment

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jbrukh/bayesian"

	"github.com/chatficdb/chatficdb/pkg/chatfic"
)

// Label is one of the ten fixed mood labels.
type Label string

const (
	Angry     Label = "angry"
	Annoyed   Label = "annoyed"
	Crying    Label = "crying"
	Happy     Label = "happy"
	Naughty   Label = "naughty"
	Neutral   Label = "neutral"
	Sad       Label = "sad"
	Scared    Label = "scared"
	Shy       Label = "shy"
	Surprised Label = "surprised"
)

// Labels lists every mood in classifier class order.
var Labels = []Label{Angry, Annoyed, Crying, Happy, Naughty, Neutral, Sad, Scared, Shy, Surprised}

// Senders that never receive a sentiment tag.
const (
	senderPlayer = "player"
	senderApp    = "app"
)

//go:embed corpus.txt
var corpus []byte

// Annotator tags dialogue bubbles with moods.
type Annotator struct {
	classifier *bayesian.Classifier
	lemmatizer *golem.Lemmatizer
}

// New builds an annotator, training the classifier from the embedded corpus.
func New() (*Annotator, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load lemmatizer: %w", err)
	}

	classes := make([]bayesian.Class, len(Labels))
	for i, l := range Labels {
		classes[i] = bayesian.Class(l)
	}
	classifier := bayesian.NewClassifierTfIdf(classes...)

	a := &Annotator{classifier: classifier, lemmatizer: lem}

	scanner := bufio.NewScanner(bytes.NewReader(corpus))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		label, sample, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("corpus line %d: missing label separator", line)
		}
		tokens := a.normalize(sample)
		if len(tokens) == 0 {
			continue
		}
		classifier.Learn(tokens, bayesian.Class(label))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	classifier.ConvertTermsFreqToTfIdf()

	return a, nil
}

// Classify returns the mood of a single line: lexical table first, trained
// classifier as fallback.
func (a *Annotator) Classify(text string) Label {
	if mood, ok := Lookup(text); ok {
		return mood
	}
	tokens := a.normalize(text)
	if len(tokens) == 0 {
		return Neutral
	}
	_, idx, _ := a.classifier.LogScores(tokens)
	return Labels[idx]
}

// Annotate tags every eligible bubble of a compiled document. Bubbles from
// the player or an app, empty bubbles, and bubbles that already carry a
// sentiment are left untouched.
func (a *Annotator) Annotate(doc *chatfic.Compiled) {
	for i := range doc.Bubbles {
		b := &doc.Bubbles[i]
		if b.Message == nil || *b.Message == "" || b.From == nil {
			continue
		}
		if *b.From == senderPlayer || *b.From == senderApp {
			continue
		}
		if b.Sentiment != "" {
			continue
		}
		b.Sentiment = string(a.Classify(*b.Message))
	}
}
