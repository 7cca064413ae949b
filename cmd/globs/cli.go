package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/globs/internal/config"
	"github.com/hpungsan/globs/internal/errors"
	"github.com/hpungsan/globs/internal/ops"
	"github.com/hpungsan/globs/internal/render"
	"github.com/hpungsan/globs/internal/web"
)

// maxStdinBytes bounds notes and edit actions read from stdin.
const maxStdinBytes = 8 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.App {
	app := &cli.App{
		Name:    "globs",
		Usage:   "Glob drawings stored locally, editable by agents",
		Version: Version,
		Commands: []*cli.Command{
			newCmd(db, cfg),
			showCmd(db),
			listCmd(db),
			deleteCmd(db),
			purgeCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			editCmd(db, cfg),
			outlineCmd(db),
			serveCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addressFlags are the --name flag shared by commands that take [id].
func addressFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Document name"},
	}, extra...)
}

// address returns the positional id, or the --name flag.
func address(c *cli.Context) (id, name string) {
	if c.NArg() > 0 {
		return c.Args().First(), ""
	}
	return "", c.String("name")
}

// newCmd creates the new command.
func newCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create an empty document (notes may be piped via stdin)",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Document title"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("document name is required"))
			}
			input := ops.CreateInput{Name: c.Args().First()}
			if title := c.String("title"); title != "" {
				input.Title = &title
			}
			if stdinHasData() {
				notes, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				input.Notes = notes
			}

			output, err := ops.Create(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a document by ID or name",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted documents"},
			&cli.BoolFlag{Name: "svg", Usage: "Print an SVG rendering instead of JSON"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Open(c.Context, db, ops.OpenInput{
				ID:             id,
				Name:           name,
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("svg") {
				svg, err := render.SVG(output.Document, render.DefaultOptions())
				if err != nil {
					return outputError(err)
				}
				_, err = os.Stdout.Write(svg)
				return err
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List documents, most recently updated first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted documents"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a document",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a document to a json, svg or png file",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|svg|png"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.globs/exports/<name>-<timestamp>.<format>)"},
			&cli.Float64Flag{Name: "scale", Usage: "PNG pixels per document unit"},
			&cli.BoolFlag{Name: "centerlines", Usage: "Draw chain centerlines"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			input := ops.ExportInput{
				ID:     id,
				Name:   name,
				Format: ops.ExportFormat(c.String("format")),
				Path:   c.String("path"),
			}
			if c.IsSet("scale") || c.Bool("centerlines") {
				opts := render.DefaultOptions()
				if c.IsSet("scale") {
					opts.Scale = c.Float64("scale")
				}
				opts.Centerlines = c.Bool("centerlines")
				input.Render = &opts
			}

			output, err := ops.Export(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a document from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name to store under (default: name in the file)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title override"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportInput{
				Path: c.String("path"),
				Name: c.String("name"),
				Mode: ops.ImportMode(c.String("mode")),
			}
			if title := c.String("title"); title != "" {
				input.Title = &title
			}

			output, err := ops.Import(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Apply edit actions to a document (reads a JSON action list from stdin)",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("actions must be piped via stdin"))
			}
			data, err := readStdin(maxStdinBytes)
			if err != nil {
				return outputError(err)
			}
			actions, err := parseActions(data)
			if err != nil {
				return outputError(err)
			}

			id, name := address(c)
			output, err := ops.Edit(c.Context, db, cfg, nil, ops.EditInput{ID: id, Name: name, Actions: actions})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// outlineCmd creates the outline command.
func outlineCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "outline",
		Usage:     "Print glob outlines as SVG path data",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "glob", Aliases: []string{"g"}, Usage: "Only this glob"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Outline(c.Context, db, ops.OutlineInput{ID: id, Name: name, GlobID: c.String("glob")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the document viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8377, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			srv, err := web.NewServer(db, cfg, Version, c.String("bind"), port, logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv, logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseActions accepts either a JSON array of actions or an object with an
// "actions" array.
func parseActions(data string) ([]ops.Action, error) {
	if data == "" {
		return nil, errors.NewInvalidRequest("no actions given")
	}
	var actions []ops.Action
	if strings.HasPrefix(data, "[") {
		if err := json.Unmarshal([]byte(data), &actions); err != nil {
			return nil, errors.NewInvalidRequest("invalid actions JSON: " + err.Error())
		}
		return actions, nil
	}
	var wrapped struct {
		Actions []ops.Action `json:"actions"`
	}
	if err := json.Unmarshal([]byte(data), &wrapped); err != nil {
		return nil, errors.NewInvalidRequest("invalid actions JSON: " + err.Error())
	}
	return wrapped.Actions, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
