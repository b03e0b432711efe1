package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/starford/mdtree/internal"
	"github.com/starford/mdtree/internal/filesync"
	"github.com/starford/mdtree/internal/markdown"
	"github.com/starford/mdtree/internal/mcpserver"
	"github.com/starford/mdtree/internal/treestore"
	"github.com/starford/mdtree/internal/treeview"
)

var parentFlag = &cli.StringFlag{
	Name:    "parent",
	Aliases: []string{"p"},
	Usage:   "Folder id to create under (default: root)",
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.NArg() < n {
		return fmt.Errorf("%s: expected %d argument(s): %s", cmd.Name, n, cmd.ArgsUsage)
	}
	return nil
}

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Print the document tree",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ids", Usage: "Show node ids"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			fmt.Println(treeview.Render(s.store.Tree(), treeview.Options{
				ShowIDs: cmd.Bool("ids"),
				Current: s.store.CurrentFileID(),
			}))
			return s.finish(ctx)
		},
	}
}

func createCommand(name, usage string, add func(*treestore.Store, string, string) (string, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<title>",
		Flags:     []cli.Flag{parentFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			title, err := treestore.ValidateTitle(strings.Join(cmd.Args().Slice(), " "))
			if err != nil {
				return err
			}
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			id, err := add(s.store, cmd.String("parent"), title)
			if err != nil {
				s.store.Close()
				return err
			}
			if err := s.finish(ctx); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func mkdirCommand() *cli.Command {
	return createCommand("mkdir", "Create a folder", (*treestore.Store).AddFolder)
}

func touchCommand() *cli.Command {
	return createCommand("touch", "Create a file", (*treestore.Store).AddFile)
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a file, or a folder and everything in it",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			if err := s.store.DeleteItem(cmd.Args().First()); err != nil {
				s.store.Close()
				return err
			}
			return s.finish(ctx)
		},
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Change the title of a node",
		ArgsUsage: "<id> <title>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			title, err := treestore.ValidateTitle(strings.Join(cmd.Args().Tail(), " "))
			if err != nil {
				return err
			}
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			if err := s.store.RenameItem(cmd.Args().First(), title); err != nil {
				s.store.Close()
				return err
			}
			return s.finish(ctx)
		},
	}
}

func writeCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "Replace a file's content from a local file or stdin",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "Read content from this path (default: stdin)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			content, err := readContent(cmd.String("from"))
			if err != nil {
				return err
			}
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			if err := s.store.UpdateContent(cmd.Args().First(), content); err != nil {
				s.store.Close()
				return err
			}
			return s.finish(ctx)
		},
	}
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Select a file and print its content",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			id := cmd.Args().First()
			printed := false
			s, err := openSession(ctx, cmd, treestore.WithContentSink(func(emitted, content string) {
				if emitted == id {
					fmt.Print(content)
					printed = true
				}
			}))
			if err != nil {
				return err
			}
			node := s.store.FindNode(id)
			if node == nil || node.IsFolder() {
				s.store.Close()
				return fmt.Errorf("open: %s is not a file", id)
			}
			// Load already printed it when id was the persisted selection.
			if !printed {
				s.store.SetCurrentFileID(id)
			}
			return s.finish(ctx)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create a file from a local Markdown file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			parentFlag,
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (default: frontmatter title, first heading, or file name)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			path := cmd.Args().First()
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc := markdown.Parse(data)

			title := cmd.String("title")
			if title == "" {
				title = doc.Title
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			title, err = treestore.ValidateTitle(markdown.Truncate(title, treestore.MaxTitleLength))
			if err != nil {
				return err
			}

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			id, err := s.store.AddFile(cmd.String("parent"), title)
			if err != nil {
				s.store.Close()
				return err
			}
			if strings.TrimSpace(doc.Body) != "" {
				if err := s.store.UpdateContent(id, doc.Body); err != nil {
					s.store.Close()
					return err
				}
			}
			if err := s.finish(ctx); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Write a file to a local path and push every local save back until interrupted",
		ArgsUsage: "<id> <path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			id, path := cmd.Args().Get(0), cmd.Args().Get(1)

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			node := s.store.FindNode(id)
			if node == nil || node.IsFolder() {
				s.store.Close()
				return fmt.Errorf("sync: %s is not a file", id)
			}
			if err := filesync.Export(path, node.Content); err != nil {
				s.store.Close()
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger := internal.NewLogger(os.Stderr, s.cfg.App.LogLevel)
			if err := filesync.Watch(ctx, s.store, id, path, logger, nil); err != nil {
				s.store.Close()
				return err
			}
			return s.finish(context.WithoutCancel(ctx))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the document tree to MCP clients over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			logger := internal.NewLogger(os.Stderr, s.cfg.App.LogLevel)
			srv := mcpserver.New(s.store, logger)
			serveErr := srv.ServeStdio()
			if err := s.finish(ctx); err != nil {
				return errors.Join(serveErr, err)
			}
			return serveErr
		},
	}
}
