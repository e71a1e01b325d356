package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/export"
	"github.com/mind-engage/lessonquiz/internal/extract"
	"github.com/mind-engage/lessonquiz/internal/grading"
	"github.com/mind-engage/lessonquiz/internal/parse"
	"github.com/mind-engage/lessonquiz/internal/prompts"
	"github.com/mind-engage/lessonquiz/internal/quiz"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type command struct {
	name    string
	summary string
	usage   string
	run     func(c *cli, args []string) int
}

type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer
}

var commands = []command{
	{"extract", "Print the text of a PDF, DOCX or TXT lesson", "quizctl extract <file>", (*cli).extract},
	{"prompt", "Print the generation prompt for a lesson", "quizctl prompt [--variant objective|grid] [--kind <kind>] <lesson>", (*cli).prompt},
	{"parse", "Parse generated quiz text into JSON questions", "quizctl parse [--variant objective|grid] [--kind <kind>] <file|->", (*cli).parse},
	{"export", "Shuffle a generated quiz and export it", "quizctl export [--variant objective|grid] [--format txt|qti] [--seed n] [--out path] <file|->", (*cli).export},
	{"score", "Score a JSON answers file against a generated quiz", "quizctl score [--variant objective|grid] --answers <answers.json> <file|->", (*cli).score},
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) == 0 {
		c.usage(stdout)
		return exitUsage
	}
	switch args[0] {
	case "-h", "--help", "help":
		c.usage(stdout)
		return exitOK
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(c, args[1:])
		}
	}
	fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
	c.usage(stderr)
	return exitUsage
}

func (c *cli) usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  quizctl <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) fail(err error) int {
	fmt.Fprintf(c.stderr, "error: %v\n", err)
	return exitError
}

// read returns the raw contents of path, or stdin for "-".
func (c *cli) read(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(c.stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// readLesson is read with PDF and DOCX files converted to text.
func (c *cli) readLesson(path string) (string, error) {
	if path == "-" {
		return c.read(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extract.Text(filepath.Base(path), "", data)
}

func oneArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", errors.New("expected exactly one input file")
	}
	return fs.Arg(0), nil
}

func (c *cli) extract(args []string) int {
	fs := c.flags("extract")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	path, err := oneArg(fs)
	if err != nil {
		return c.fail(err)
	}
	text, err := c.readLesson(path)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.stdout, text)
	return exitOK
}

func (c *cli) prompt(args []string) int {
	fs := c.flags("prompt")
	variant := fs.String("variant", string(quiz.VariantObjective), "objective or grid")
	kind := fs.String("kind", "", "limit an objective quiz to one kind")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	path, err := oneArg(fs)
	if err != nil {
		return c.fail(err)
	}
	lesson, err := c.readLesson(path)
	if err != nil {
		return c.fail(err)
	}
	if quiz.Variant(*variant) == quiz.VariantGrid {
		fmt.Fprintln(c.stdout, prompts.Grid(lesson))
	} else {
		fmt.Fprintln(c.stdout, prompts.Objective(quiz.Kind(*kind), lesson))
	}
	return exitOK
}

// load parses the generated quiz text named by the single positional arg.
func (c *cli) load(fs *flag.FlagSet, variant, kind string) (quiz.List, error) {
	path, err := oneArg(fs)
	if err != nil {
		return nil, err
	}
	raw, err := c.read(path)
	if err != nil {
		return nil, err
	}
	var qs quiz.List
	switch quiz.Variant(variant) {
	case quiz.VariantGrid:
		qs = parse.Grid(raw)
	case quiz.VariantObjective:
		if k := quiz.Kind(kind); k != "" && k != prompts.Mixed {
			if !k.Valid() {
				return nil, fmt.Errorf("unknown kind %q", kind)
			}
			qs = parse.Objective(raw, k)
		} else {
			qs = parse.Objective(raw)
		}
	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
	if len(qs) == 0 {
		return nil, errors.New("no questions found")
	}
	return qs, nil
}

func (c *cli) parse(args []string) int {
	fs := c.flags("parse")
	variant := fs.String("variant", string(quiz.VariantObjective), "objective or grid")
	kind := fs.String("kind", "", "keep only one kind")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	qs, err := c.load(fs, *variant, *kind)
	if err != nil {
		return c.fail(err)
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(qs); err != nil {
		return c.fail(err)
	}
	return exitOK
}

func (c *cli) export(args []string) int {
	fs := c.flags("export")
	variant := fs.String("variant", string(quiz.VariantObjective), "objective or grid")
	format := fs.String("format", "txt", "txt or qti")
	seed := fs.Uint64("seed", 0, "shuffle seed; 0 picks a random order")
	out := fs.String("out", "", "output file; defaults to stdout for txt")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	qs, err := c.load(fs, *variant, "")
	if err != nil {
		return c.fail(err)
	}
	var r *rand.Rand
	if *seed != 0 {
		r = rand.New(rand.NewPCG(*seed, *seed))
	}
	view := quiz.NewView(qs, 1, r)

	var data []byte
	switch strings.ToLower(*format) {
	case "txt", "text":
		data = export.Text(quiz.Variant(*variant), qs, view)
	case "qti":
		if *out == "" {
			return c.fail(errors.New("--out is required for qti"))
		}
		if data, err = export.QTI(qs, view); err != nil {
			return c.fail(err)
		}
	default:
		return c.fail(fmt.Errorf("unknown format %q", *format))
	}
	if *out == "" {
		_, err = c.stdout.Write(data)
	} else {
		err = os.WriteFile(*out, data, 0o644)
	}
	if err != nil {
		return c.fail(err)
	}
	return exitOK
}

func (c *cli) score(args []string) int {
	fs := c.flags("score")
	variant := fs.String("variant", string(quiz.VariantObjective), "objective or grid")
	answersPath := fs.String("answers", "", "JSON answers file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *answersPath == "" {
		return c.fail(errors.New("--answers is required"))
	}
	qs, err := c.load(fs, *variant, "")
	if err != nil {
		return c.fail(err)
	}
	b, err := os.ReadFile(*answersPath)
	if err != nil {
		return c.fail(err)
	}
	var a quiz.Answers
	if err := json.Unmarshal(b, &a); err != nil {
		return c.fail(fmt.Errorf("answers: %w", err))
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(grading.Score(qs, a)); err != nil {
		return c.fail(err)
	}
	return exitOK
}
