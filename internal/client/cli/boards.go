package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/pkg/api"
)

func (c *Cli) runBoards(ctx context.Context, _ []string) error {
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	boards, err := client.ListBoards(ctx)
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		c.io.Println("No boards yet. Create one with 'boardsync create-board <title>'.")
		return nil
	}

	for _, b := range boards {
		c.io.Printf("%s  %s\n", b.ID, b.Title)
	}
	return nil
}

func (c *Cli) runCreateBoard(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	board, err := client.CreateBoard(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	c.io.Printf("✓ Board created: %s\n", board.ID)
	return nil
}

func (c *Cli) runShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	board, err := client.GetBoard(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("=== %s ===\n", board.Board.Title)
	for _, l := range board.Lists {
		c.io.Printf("\n[%s] %s\n", l.List.ID, l.List.Title)
		if len(l.Cards) == 0 {
			c.io.Println("  (empty)")
		}
		for i, card := range l.Cards {
			c.io.Printf("  %d. %s  (%s)\n", i+1, card.Title, card.ID)
		}
	}
	return nil
}

func (c *Cli) runAddList(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	list, err := client.CreateList(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	c.io.Printf("✓ List created: %s\n", list.ID)
	return nil
}

func (c *Cli) runAddCard(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	card, err := client.CreateCard(ctx, args[0], api.CreateCardRequest{Title: strings.Join(args[1:], " ")})
	if err != nil {
		return err
	}
	c.io.Printf("✓ Card created: %s\n", card.ID)
	return nil
}

func (c *Cli) runMoveCard(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	index, err := strconv.Atoi(args[2])
	if err != nil || index < 0 {
		return fmt.Errorf("%w: index must be a non-negative number", ErrUsage)
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	card, err := client.MoveCard(ctx, args[0], api.MoveCardRequest{ToListID: args[1], Index: index})
	if err != nil {
		return err
	}
	c.io.Printf("✓ Card moved to list %s\n", card.ListID)
	return nil
}

func (c *Cli) runInvite(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	req := api.AddMemberRequest{Username: args[1]}
	if len(args) == 3 {
		req.Role = args[2]
	}

	member, err := client.AddMember(ctx, args[0], req)
	if err != nil {
		return err
	}
	c.io.Printf("✓ %s added as %s\n", member.User.Username, member.Role)
	return nil
}

func (c *Cli) runNotifications(ctx context.Context, _ []string) error {
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	notes, err := client.Notifications(ctx, 20)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		c.io.Println("No notifications.")
		return nil
	}

	for _, n := range notes {
		mark := "*"
		if n.Read {
			mark = " "
		}
		c.io.Printf("%s %s  %s  %s\n", mark, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.ID, n.Message)
	}
	return nil
}

func (c *Cli) runRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client, _, err := c.session(ctx)
	if err != nil {
		return err
	}

	if err := client.MarkRead(ctx, args[0]); err != nil {
		return err
	}
	c.io.Println("✓ Marked as read")
	return nil
}

func (c *Cli) runWatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	client, auth, err := c.session(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Watching %s as %s. Press Ctrl+C to stop.\n", strings.Join(args, ", "), auth.Username)
	return client.Watch(ctx, args, func(f events.Frame) error {
		c.io.Println(describe(f))
		return nil
	})
}

// describe строка события для вывода в консоль
func describe(f events.Frame) string {
	var b strings.Builder
	if f.Seq > 0 {
		fmt.Fprintf(&b, "#%d ", f.Seq)
	}
	b.WriteString(string(f.Type))
	if f.Room != "" {
		fmt.Fprintf(&b, " [%s]", f.Room)
	}
	if len(f.Data) > 0 && string(f.Data) != "{}" && string(f.Data) != "null" {
		b.WriteString(" ")
		b.Write(f.Data)
	}
	return b.String()
}
