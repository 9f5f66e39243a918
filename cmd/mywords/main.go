// Command mywords looks words up in the online English/Turkish dictionary and
// keeps them in local word lists.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/config"
	"github.com/japaniel/mywords/pkg/db"
	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
	"github.com/japaniel/mywords/pkg/ingest"
	"github.com/japaniel/mywords/pkg/logger"
	"github.com/japaniel/mywords/pkg/mywords"
)

const usage = `usage: mywords [-config FILE] [-db PATH] <command> [args]

commands:
  lookup [-save LIST] WORD       look a word up, optionally saving it to a list
  lists                          show every list with its words
  create-list NAME               create an empty list
  delete-list LIST               delete a list and its words
  add LIST WORD                  look a word up and save it to a list
  remove LIST WORD               remove a word from a list
  import FILE                    import a legacy extension export
  bulk-add [-file FILE] LIST [WORD...]
                                 look words up concurrently and save them
  export [-o FILE]               write every list as JSON
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// app holds the wired components shared by the commands.
type app struct {
	svc      *mywords.Service
	importer *ingest.Importer
	log      *zap.Logger
	out      io.Writer
	errOut   io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mywords", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configFlag := fs.String("config", "", "Path to YAML config (default $CONFIG_PATH or ./mywords.yaml)")
	dbFlag := fs.String("db", "", "Path to SQLite database (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *dbFlag != "" {
		cfg.Database.Path = *dbFlag
	}

	log := logger.NewWithWriter(cfg.Log, stderr)
	defer func() { _ = log.Sync() }()

	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer conn.Close()

	store := db.NewStore(conn, log)
	client := dictionary.NewClient(dictionary.ClientConfig{
		BaseURL:      cfg.Lookup.BaseURL,
		UserAgent:    cfg.Lookup.UserAgent,
		Timeout:      cfg.Lookup.Timeout,
		MaxBodyBytes: cfg.Lookup.MaxBodyBytes,
	}, log)
	svc := mywords.NewService(store, log, mywords.WithLookup(client))
	importer := ingest.NewImporter(store, svc, client, log)
	importer.Workers = cfg.Import.Workers
	importer.BatchSize = cfg.Import.BatchSize
	importer.FlushInterval = cfg.Import.FlushInterval

	a := &app{svc: svc, importer: importer, log: log, out: stdout, errOut: stderr}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	var cmdErr error
	switch cmd {
	case "lookup":
		cmdErr = a.lookup(ctx, cmdArgs)
	case "lists":
		cmdErr = a.lists(ctx)
	case "create-list":
		cmdErr = a.createList(ctx, cmdArgs)
	case "delete-list":
		cmdErr = a.deleteList(ctx, cmdArgs)
	case "add":
		cmdErr = a.add(ctx, cmdArgs)
	case "remove":
		cmdErr = a.remove(ctx, cmdArgs)
	case "import":
		cmdErr = a.importLegacy(ctx, cmdArgs)
	case "bulk-add":
		cmdErr = a.bulkAdd(ctx, cmdArgs)
	case "export":
		cmdErr = a.export(ctx, cmdArgs)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	var ue usageError
	switch {
	case cmdErr == nil:
		return 0
	case errors.As(cmdErr, &ue):
		fmt.Fprintf(stderr, "%s\n", ue.msg)
		fs.Usage()
		return 2
	default:
		log.Debug("command failed", zap.String("command", cmd), zap.Error(cmdErr))
		fmt.Fprintf(stderr, "error: %s\n", describe(cmdErr))
		return 1
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// describe maps error kinds to messages for the person at the terminal.
func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, errs.ErrNotFound):
		return "no results found"
	case errors.Is(err, errs.ErrNetwork):
		return "could not reach the dictionary, please try again"
	case errors.Is(err, errs.ErrDuplicate):
		return "the word is already in this list"
	case errors.Is(err, errs.ErrReservedList):
		return "the default list cannot be deleted"
	case errors.Is(err, errs.ErrMissingList):
		return "the list does not exist"
	case errors.Is(err, errs.ErrValidation):
		return "invalid input: " + err.Error()
	case errors.Is(err, errs.ErrStore):
		return "could not access the word store"
	default:
		return err.Error()
	}
}

func (a *app) lookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	save := fs.String("save", "", "List id to save the result to")
	if err := fs.Parse(args); err != nil {
		return usageError{"lookup: " + err.Error()}
	}
	if fs.NArg() == 0 {
		return usageError{"lookup: missing WORD"}
	}

	def, err := a.svc.Lookup(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	printDefinition(a.out, def)

	if *save == "" {
		return nil
	}
	if err := a.svc.AddWordToList(ctx, *save, *def); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %q to list %s.\n", def.Word, *save)
	return nil
}

func (a *app) lists(ctx context.Context) error {
	lists, err := a.svc.GetLists(ctx)
	if err != nil {
		return err
	}
	for _, l := range lists {
		fmt.Fprintf(a.out, "%s\t%s (%d words)\n", l.ID, l.Name, len(l.Words))
		for _, w := range l.Words {
			targets := make([]string, 0, len(w.Meanings))
			for _, m := range w.Meanings {
				targets = append(targets, m.Target)
			}
			fmt.Fprintf(a.out, "  %s: %s\n", w.Word, strings.Join(targets, ", "))
		}
	}
	return nil
}

func (a *app) createList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError{"create-list: missing NAME"}
	}
	l, err := a.svc.CreateList(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created list %q with id %s.\n", l.Name, l.ID)
	return nil
}

func (a *app) deleteList(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{"delete-list: expected LIST"}
	}
	if err := a.svc.DeleteList(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted list %s.\n", args[0])
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError{"add: expected LIST WORD"}
	}
	listID := args[0]
	def, err := a.svc.Lookup(ctx, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if err := a.svc.AddWordToList(ctx, listID, *def); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %q to list %s.\n", def.Word, listID)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError{"remove: expected LIST WORD"}
	}
	listID, word := args[0], strings.Join(args[1:], " ")
	err := a.svc.DeleteWordFromList(ctx, listID, word)
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%q is not in list %s", word, listID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %q from list %s.\n", word, listID)
	return nil
}

func (a *app) importLegacy(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{"import: expected FILE"}
	}
	export, err := ingest.LoadLegacyExport(args[0])
	if err != nil {
		return err
	}
	if err := a.svc.Init(ctx); err != nil {
		return err
	}

	report, err := a.importer.ImportLegacy(ctx, export)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d words into %d new lists (%d skipped).\n", report.Words, report.Lists, report.Skipped)
	return nil
}

func (a *app) bulkAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bulk-add", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	file := fs.String("file", "", "File with one word per line")
	if err := fs.Parse(args); err != nil {
		return usageError{"bulk-add: " + err.Error()}
	}
	if fs.NArg() == 0 {
		return usageError{"bulk-add: missing LIST"}
	}
	listID, words := fs.Arg(0), fs.Args()[1:]
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		words = append(words, strings.Split(string(data), "\n")...)
	}
	if len(words) == 0 {
		return usageError{"bulk-add: no words given"}
	}
	if err := a.svc.Init(ctx); err != nil {
		return err
	}

	report, err := a.importer.AddWords(ctx, listID, words)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "added\t%d\t%s\n", len(report.Added), strings.Join(report.Added, ", "))
	fmt.Fprintf(tw, "duplicate\t%d\t%s\n", len(report.Duplicates), strings.Join(report.Duplicates, ", "))
	fmt.Fprintf(tw, "not found\t%d\t%s\n", len(report.NotFound), strings.Join(report.NotFound, ", "))
	failed := make([]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, fmt.Sprintf("%s (%s)", f.Word, describe(f.Err)))
	}
	fmt.Fprintf(tw, "failed\t%d\t%s\n", len(report.Failed), strings.Join(failed, ", "))
	return tw.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	outPath := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return usageError{"export: " + err.Error()}
	}

	lists, err := a.svc.GetLists(ctx)
	if err != nil {
		return err
	}

	w := a.out
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"lists": lists})
}

func printDefinition(w io.Writer, def *dictionary.Definition) {
	fmt.Fprintln(w, def.Word)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range def.Meanings {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Category, m.Source, m.Target)
	}
	_ = tw.Flush()
}
