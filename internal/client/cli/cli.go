// Package cli команды консольного клиента boardsync.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/boardsync/internal/client/api"
	"github.com/iudanet/boardsync/internal/client/iocli"
	"github.com/iudanet/boardsync/internal/client/storage"
)

// ErrUsage неверные аргументы команды
var ErrUsage = errors.New("invalid usage")

type command struct {
	run   func(ctx context.Context, args []string) error
	usage string
	help  string
}

// Cli консольный клиент
type Cli struct {
	io       iocli.IO
	api      *api.Client
	store    storage.AuthStorage
	now      func() time.Time
	commands map[string]command
	order    []string
}

// New создает клиент. store хранит сессию между запусками.
func New(io iocli.IO, client *api.Client, store storage.AuthStorage) *Cli {
	c := &Cli{
		io:    io,
		api:   client,
		store: store,
		now:   time.Now,
	}

	c.register("register", "", "Register new user and log in", c.runRegister)
	c.register("login", "", "Login to server", c.runLogin)
	c.register("logout", "", "Forget the saved session", c.runLogout)
	c.register("status", "", "Show authentication status", c.runStatus)
	c.register("boards", "", "List your boards", c.runBoards)
	c.register("create-board", "<title>", "Create a board", c.runCreateBoard)
	c.register("show", "<board-id>", "Show lists and cards of a board", c.runShow)
	c.register("add-list", "<board-id> <title>", "Append a list to a board", c.runAddList)
	c.register("add-card", "<list-id> <title>", "Append a card to a list", c.runAddCard)
	c.register("move-card", "<card-id> <list-id> <index>", "Move a card", c.runMoveCard)
	c.register("invite", "<board-id> <username> [role]", "Add a member to a board", c.runInvite)
	c.register("notifications", "", "Show your inbox", c.runNotifications)
	c.register("read", "<notification-id>", "Mark a notification as read", c.runRead)
	c.register("watch", "<board-id>...", "Stream live board events until interrupted", c.runWatch)

	return c
}

func (c *Cli) register(name, usage, help string, run func(ctx context.Context, args []string) error) {
	if c.commands == nil {
		c.commands = make(map[string]command)
	}
	c.commands[name] = command{run: run, usage: usage, help: help}
	c.order = append(c.order, name)
}

// Run выполняет команду args[0]
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return ErrUsage
	}

	cmd, ok := c.commands[args[0]]
	if !ok {
		c.PrintUsage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	if err := cmd.run(ctx, args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			c.io.Printf("Usage: boardsync %s %s\n", args[0], cmd.usage)
		}
		return err
	}
	return nil
}

// PrintUsage выводит список команд
func (c *Cli) PrintUsage() {
	c.io.Println("BoardSync Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  boardsync [OPTIONS] COMMAND [ARGS]")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version      Show version information")
	c.io.Println("  --server URL   Server URL (default: http://localhost:8080)")
	c.io.Println("  --db PATH      Path to local session database (default: boardsync-client.db)")
	c.io.Println()
	c.io.Println("Commands:")
	for _, name := range c.order {
		cmd := c.commands[name]
		c.io.Printf("  %-46s %s\n", name+" "+cmd.usage, cmd.help)
	}
}

// session возвращает клиента с токеном сохраненной сессии
func (c *Cli) session(ctx context.Context) (*api.Client, *storage.AuthData, error) {
	auth, err := c.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, nil, errors.New("not authenticated. Please run 'boardsync login' first")
		}
		return nil, nil, fmt.Errorf("failed to get auth data: %w", err)
	}
	if auth.Expired(c.now()) {
		return nil, nil, errors.New("session expired. Please run 'boardsync login' again")
	}

	client := c.api
	if auth.ServerURL != "" && auth.ServerURL != client.BaseURL() {
		client = api.NewClient(auth.ServerURL)
	}
	return client.WithToken(auth.AccessToken), auth, nil
}
