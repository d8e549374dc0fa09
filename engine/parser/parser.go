// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just a fixed vocabulary and aliases.
package parser

import (
	"fmt"
	"strings"

	"github.com/nathoo/delve/types"
)

// InvalidCommandError reports a malformed or unrecognized command. It is
// always recovered locally: the message is shown and the session goes on.
type InvalidCommandError struct {
	Input  string
	Reason string
}

func (e *InvalidCommandError) Error() string {
	return e.Reason
}

type arity int

const (
	noArgs arity = iota
	oneOrMore
)

// Verbs is the fixed vocabulary and the argument each verb takes.
var Verbs = map[string]arity{
	"look":      noArgs,
	"move":      oneOrMore,
	"take":      oneOrMore,
	"use":       oneOrMore,
	"inventory": noArgs,
	"health":    noArgs,
	"score":     noArgs,
	"status":    noArgs,
	"explore":   noArgs,
	"save":      noArgs,
	"help":      noArgs,
	"quit":      noArgs,
	"shop":      noArgs,
	"buy":       oneOrMore,
	"abandon":   noArgs,
}

var directionExpansions = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
	"u":  "up",
	"d":  "down",
}

// Full direction names that are standalone shortcuts for "move <dir>".
var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"northeast": true, "northwest": true, "southeast": true, "southwest": true,
	"up": true, "down": true,
}

var verbAliases = map[string]string{
	"l":        "look",
	"go":       "move",
	"walk":     "move",
	"run":      "move",
	"head":     "move",
	"travel":   "move",
	"get":      "take",
	"grab":     "take",
	"carry":    "take",
	"i":        "inventory",
	"inv":      "inventory",
	"hp":       "health",
	"search":   "explore",
	"x":        "explore",
	"exit":     "quit",
	"q":        "quit",
	"bye":      "quit",
	"?":        "help",
	"purchase": "buy",
	"skip":     "abandon",
	"giveup":   "abandon",
	"retreat":  "abandon",
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent. Unknown verbs and
// wrong argument counts return an *InvalidCommandError alongside an intent
// whose Raw field is still filled in.
func Parse(input string) (types.Intent, error) {
	words := strings.Fields(strings.ToLower(input))
	if len(words) == 0 {
		return types.Intent{}, nil
	}
	raw := strings.Join(words, " ")

	// Direction shortcut: bare "n", "south", etc. → move <direction>
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "move", Object: dir, Raw: raw}, nil
		}
		if directionNames[words[0]] {
			return types.Intent{Verb: "move", Object: words[0], Raw: raw}, nil
		}
	}

	words = expandMultiWordVerbs(words)

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])
	intent := types.Intent{Verb: verb, Object: strings.Join(rest, " "), Raw: raw}

	want, known := Verbs[verb]
	if !known {
		return types.Intent{Raw: raw}, &InvalidCommandError{
			Input:  input,
			Reason: fmt.Sprintf("I don't understand %q. Type 'help' for commands.", verb),
		}
	}

	switch {
	case want == noArgs && intent.Object != "":
		return intent, &InvalidCommandError{
			Input:  input,
			Reason: fmt.Sprintf("'%s' doesn't take anything after it.", verb),
		}
	case want == oneOrMore && intent.Object == "":
		return intent, &InvalidCommandError{
			Input:  input,
			Reason: missingArgument(verb),
		}
	}

	if verb == "move" {
		if dir, ok := directionExpansions[intent.Object]; ok {
			intent.Object = dir
		}
	}

	return intent, nil
}

func missingArgument(verb string) string {
	switch verb {
	case "move":
		return "Move where?"
	case "take":
		return "Take what?"
	case "use":
		return "Use what?"
	case "buy":
		return "Buy what?"
	default:
		return fmt.Sprintf("%s what?", verb)
	}
}

// expandMultiWordVerbs handles "pick up", "look around" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "pick":
		if words[1] == "up" {
			return append([]string{"take"}, words[2:]...)
		}
	case "look":
		if words[1] == "around" && len(words) == 2 {
			return []string{"look"}
		}
	case "give":
		if words[1] == "up" && len(words) == 2 {
			return []string{"abandon"}
		}
	case "save":
		if words[1] == "game" && len(words) == 2 {
			return []string{"save"}
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}
