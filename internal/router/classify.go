package router

import (
	"strings"

	"github.com/rbright/hark/internal/commands"
)

// DefaultVerbs mark an utterance as a likely command.
var DefaultVerbs = []string{
	"open", "close", "switch", "go", "search", "find", "new", "refresh",
	"scroll", "zoom", "bookmark", "make", "add", "remove", "change",
	"increase", "decrease", "set", "align", "clear", "apply", "insert",
}

const (
	DefaultShortMaxWords     = 3
	DefaultDictationMinWords = 5
)

// Class is the dictation-vs-command verdict.
type Class string

const (
	ClassCommand   Class = "command"
	ClassDictation Class = "dictation"
)

// Reason names the rule that produced a Class.
type Reason string

const (
	ReasonEmpty     Reason = "empty"
	ReasonVerb      Reason = "leading_verb"
	ReasonShort     Reason = "short_with_verb"
	ReasonSentence  Reason = "long_sentence"
	ReasonNoCommand Reason = "no_command_signal"
)

// Classification is the result of Classify.
type Classification struct {
	Class  Class  `json:"class"`
	Reason Reason `json:"reason"`
	Verb   string `json:"verb,omitempty"`
	Words  int    `json:"words"`
}

// Command reports whether the utterance looks like a command.
func (c Classification) Command() bool { return c.Class == ClassCommand }

// Classifier is a heuristic. Misclassification is expected; the verbs and
// thresholds are configuration.
type Classifier struct {
	Verbs             []string
	ShortMaxWords     int
	DictationMinWords int
}

// NewClassifier fills zero values with the defaults.
func NewClassifier(verbs []string, shortMaxWords int, dictationMinWords int) Classifier {
	c := Classifier{ShortMaxWords: shortMaxWords, DictationMinWords: dictationMinWords}
	for _, v := range verbs {
		if v = commands.Normalize(v); v != "" {
			c.Verbs = append(c.Verbs, v)
		}
	}
	if len(c.Verbs) == 0 {
		c.Verbs = append([]string(nil), DefaultVerbs...)
	}
	if c.ShortMaxWords <= 0 {
		c.ShortMaxWords = DefaultShortMaxWords
	}
	if c.DictationMinWords <= 0 {
		c.DictationMinWords = DefaultDictationMinWords
	}
	return c
}

// Classify applies, in order: leading verb, short phrase containing a verb
// anywhere (substring, so "reopen it" counts), then dictation.
func (c Classifier) Classify(utterance string) Classification {
	u := commands.Normalize(utterance)
	words := len(strings.Fields(u))
	if words == 0 {
		return Classification{Class: ClassDictation, Reason: ReasonEmpty}
	}

	for _, verb := range c.Verbs {
		if u == verb || strings.HasPrefix(u, verb+" ") {
			return Classification{Class: ClassCommand, Reason: ReasonVerb, Verb: verb, Words: words}
		}
	}

	if words <= c.ShortMaxWords {
		for _, verb := range c.Verbs {
			if strings.Contains(u, verb) {
				return Classification{Class: ClassCommand, Reason: ReasonShort, Verb: verb, Words: words}
			}
		}
	}

	if words > c.DictationMinWords {
		return Classification{Class: ClassDictation, Reason: ReasonSentence, Words: words}
	}
	return Classification{Class: ClassDictation, Reason: ReasonNoCommand, Words: words}
}
