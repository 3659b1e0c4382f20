// Command gqlwhere compiles a JSON filter tree into the SQL gorm would run for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theplant/gqlwhere/filter"
	"github.com/theplant/gqlwhere/filter/gormfilter"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type command struct {
	table      string
	configPath string
	having     bool
	group      string
	or         bool
	strict     bool
	dsn        string
	verbose    bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cmd command
	fs := flag.NewFlagSet("gqlwhere", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cmd.table, "table", "", "table to filter (required)")
	fs.StringVar(&cmd.configPath, "config", "", "YAML field rendering configuration")
	fs.BoolVar(&cmd.having, "having", false, "attach the filter to HAVING, requires -group")
	fs.StringVar(&cmd.group, "group", "", "comma separated GROUP BY columns")
	fs.BoolVar(&cmd.or, "or", false, "join the filter with OR")
	fs.BoolVar(&cmd.strict, "strict", false, "reject unknown operators")
	fs.StringVar(&cmd.dsn, "dsn", "", "postgres DSN, when set the filter is executed as a COUNT")
	fs.BoolVar(&cmd.verbose, "v", false, "log every statement sent to the database")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: gqlwhere -table name [flags] [filter.json|-]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if cmd.table == "" {
		fmt.Fprintln(stderr, "gqlwhere: -table is required")
		fs.Usage()
		return 2
	}

	if err := cmd.execute(ctx, fs.Arg(0), stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "gqlwhere: %v\n", err)
		return 1
	}
	return 0
}

func (cmd *command) execute(ctx context.Context, source string, stdin io.Reader, stdout, stderr io.Writer) error {
	node, err := readFilter(source, stdin)
	if err != nil {
		return err
	}
	cfg, err := cmd.config()
	if err != nil {
		return err
	}

	db, err := cmd.open(stderr)
	if err != nil {
		return err
	}

	q := db.WithContext(ctx).Table(cmd.table)
	for _, column := range strings.Split(cmd.group, ",") {
		if column = strings.TrimSpace(column); column != "" {
			q = q.Group(column)
		}
	}
	apply := gormfilter.Apply
	if cmd.or {
		apply = gormfilter.ApplyOr
	}
	q, err = apply(q, node, cfg)
	if err != nil {
		return errors.Wrap(err, "compile filter")
	}

	if cmd.dsn == "" {
		return printStatement(stdout, q)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return errors.Wrap(err, "count")
	}
	fmt.Fprintln(stdout, count)
	return nil
}

func (cmd *command) config() (*gormfilter.Config, error) {
	cfg := &gormfilter.Config{}
	if cmd.configPath != "" {
		var err error
		if cfg, err = gormfilter.LoadConfig(cmd.configPath); err != nil {
			return nil, err
		}
	}
	if cmd.having {
		cfg.Having = true
	}
	if cmd.strict {
		cfg.StrictOperators = true
	}
	if cfg.Having && cmd.group == "" {
		return nil, errors.New("-having requires -group")
	}
	return cfg, nil
}

func (cmd *command) open(stderr io.Writer) (*gorm.DB, error) {
	level := logger.Warn
	if cmd.verbose {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: cmd.dsn}), &gorm.Config{
		DryRun:               cmd.dsn == "",
		DisableAutomaticPing: cmd.dsn == "",
		Logger: logger.New(log.New(stderr, "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return db, nil
}

func readFilter(source string, stdin io.Reader) (filter.Node, error) {
	var (
		data []byte
		err  error
	)
	if source == "" || source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read filter")
	}
	return filter.Decode(data)
}

func printStatement(w io.Writer, q *gorm.DB) error {
	stmt := q.Find(&[]map[string]any{})
	if stmt.Error != nil {
		return errors.Wrap(stmt.Error, "build statement")
	}
	vars, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(stmt.Statement.Vars)
	if err != nil {
		return errors.Wrap(err, "marshal vars")
	}
	sql := stmt.Statement.SQL.String()
	fmt.Fprintf(w, "sql:  %s\nvars: %s\n", sql, vars)
	fmt.Fprintf(w, "explain: %s\n", stmt.Dialector.Explain(sql, stmt.Statement.Vars...))
	return nil
}
