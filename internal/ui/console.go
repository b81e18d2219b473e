package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/genie/internal/game"
	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// errQuit ends Play without an error.
var errQuit = errors.New("quit")

// Console plays the game one line at a time. Only the goroutine running
// Play writes to out; Log may be called from any goroutine.
type Console struct {
	in  *bufio.Scanner
	out io.Writer

	mu      sync.Mutex
	notices []string
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
}

// Log queues msg; Play prints it before the next turn.
func (c *Console) Log(msg string) {
	c.mu.Lock()
	c.notices = append(c.notices, msg)
	c.mu.Unlock()
}

func (c *Console) flush() {
	c.mu.Lock()
	notices := c.notices
	c.notices = nil
	c.mu.Unlock()

	for _, n := range notices {
		fmt.Fprintf(c.out, "* %s\n", n)
	}
}

func (c *Console) ShowTurn(t game.Turn) {
	switch t.Kind {
	case game.KindQuestion:
		fmt.Fprintf(c.out, "\nQuestion #%d\n", t.Index)
		fmt.Fprintf(c.out, "Does your character have the trait: '%s'?\n", t.Trait)
		fmt.Fprintln(c.out, "  [y] Yes  [p] Probably  [?] Don't know  [pn] Probably not  [n] No   (r restart, q quit)")
	case game.KindGuess:
		fmt.Fprintf(c.out, "\nI'm thinking of... %s!\n", t.Entity)
		if t.Image != "" {
			fmt.Fprintf(c.out, "  %s\n", t.Image)
		}
	case game.KindLearnPrompt:
		fmt.Fprintln(c.out, "\nI give up! Teach me.")
	case game.KindResolved:
		if t.Mode == game.Won {
			fmt.Fprintln(c.out, "Yes! I read your mind.")
		} else {
			fmt.Fprintln(c.out, "Success! I'll remember that.")
		}
	}
}

// Play runs g until the player quits or the input ends.
func (c *Console) Play(ctx context.Context, g *game.Game) error {
	defer c.flush()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.flush()
		t := g.Turn()
		c.ShowTurn(t)

		var err error
		switch t.Kind {
		case game.KindQuestion:
			err = c.question(ctx, g, t)
		case game.KindGuess:
			err = c.guess(ctx, g)
		case game.KindLearnPrompt:
			err = c.learn(ctx, g)
		case game.KindResolved:
			err = c.again(ctx, g)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out, "Bye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) question(ctx context.Context, g *game.Game, t game.Turn) error {
	for {
		line, err := c.prompt("> ")
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "q", "quit":
			return errQuit
		case "r", "restart":
			return c.restart(ctx, g)
		}
		a, ok := knowledge.ParseAnswer(line)
		if !ok {
			fmt.Fprintln(c.out, "Please answer y, p, ?, pn or n (or 1-5).")
			continue
		}
		if _, err := g.Answer(ctx, t.Trait, a); err != nil {
			c.report(err)
			continue
		}
		return nil
	}
}

func (c *Console) guess(ctx context.Context, g *game.Game) error {
	for {
		line, err := c.prompt("Is that right? [y/n] ")
		if err != nil {
			return err
		}
		var correct bool
		switch strings.ToLower(line) {
		case "y", "yes":
			correct = true
		case "n", "no":
		case "q", "quit":
			return errQuit
		case "r", "restart":
			return c.restart(ctx, g)
		default:
			continue
		}
		if _, err := g.ConfirmGuess(ctx, correct); err != nil {
			c.report(err)
		}
		return nil
	}
}

func (c *Console) learn(ctx context.Context, g *game.Game) error {
	name, err := c.prompt("Who were you thinking of? ")
	if err != nil {
		return err
	}
	image, err := c.prompt("Image URL (optional): ")
	if err != nil {
		return err
	}
	who := name
	if who == "" {
		who = "them"
	}
	trait, err := c.prompt(fmt.Sprintf("What makes %s unique? (e.g. 'has a beard') ", who))
	if err != nil {
		return err
	}
	t, err := g.SubmitLearning(ctx, name, trait, image)
	if err != nil {
		c.report(err)
		return nil
	}
	for _, w := range t.Warnings {
		fmt.Fprintf(c.out, "note: %s\n", w)
	}
	return nil
}

func (c *Console) again(ctx context.Context, g *game.Game) error {
	line, err := c.prompt("Play again? [y/n] ")
	if err != nil {
		return err
	}
	if l := strings.ToLower(line); l != "y" && l != "yes" && l != "" {
		return errQuit
	}
	return c.restart(ctx, g)
}

func (c *Console) restart(ctx context.Context, g *game.Game) error {
	if _, err := g.Restart(ctx); err != nil {
		c.report(err)
	}
	return nil
}

func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) report(err error) {
	fmt.Fprintf(c.out, "error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(c.out, "hint: %s\n", hint)
	}
}
