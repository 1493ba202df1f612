package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"switchbomb/internal/config"
	"switchbomb/internal/multiplayer"
	"switchbomb/internal/room"
)

// runGame wires a client to a store and runs the interactive loop.
// An empty code hosts a new room; otherwise it joins as a guest.
func runGame(ctx context.Context, opts *options, code string) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	name := opts.name
	if name == "" {
		name = promptName(os.Stdin, os.Stdout)
	}
	if name == "" {
		return room.ErrNameRequired
	}

	st, err := openStore(ctx, opts, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := multiplayer.NewClient(st, cfg, logger)
	client.AddObserver(newPrinter(os.Stdout))

	if code == "" {
		code, err = client.CreateRoom(name)
		if err != nil {
			return err
		}
		fmt.Printf("Room code: %s\n", code)
		printShareLinks(cfg, code)
		fmt.Println("You are the host. Press s to start once everyone has joined.")
	} else {
		if err := client.JoinRoom(code, name); err != nil {
			return err
		}
		fmt.Printf("Joined room %s. Waiting for the host to start.\n", room.NormalizeCode(code))
	}
	defer client.Leave()

	return inputLoop(ctx, client, os.Stdin)
}

func promptName(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "Your name: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func printShareLinks(cfg *config.Config, code string) {
	if cfg.Relay.PublicURL == "" {
		return
	}
	if link, err := room.ShareURL(cfg.Relay.PublicURL, code); err == nil {
		fmt.Printf("Share link: %s\n", link)
	}
	fmt.Printf("QR code:    %s/room/%s\n", strings.TrimRight(cfg.Relay.PublicURL, "/"), code)
}

// inputLoop reads single-letter commands line by line until quit or EOF.
func inputLoop(ctx context.Context, client *multiplayer.Client, in io.Reader) error {
	fmt.Println("Commands: 1-5 press a switch, s start, r reset, q quit")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch key := rune(line[0]); key {
		case 'q':
			return nil
		case 's':
			if err := client.StartGame(); err != nil {
				fmt.Println(err)
			}
		case 'r':
			if err := client.ResetGame(); err != nil {
				fmt.Println(err)
			}
		case '1', '2', '3', '4', '5':
			if err := client.PressKey(key); err != nil {
				fmt.Println(err)
			}
		default:
			fmt.Println("Commands: 1-5 press a switch, s start, r reset, q quit")
		}
	}
	return scanner.Err()
}

// printer renders room snapshots to the terminal, printing only what
// changed to keep the scroll readable.
type printer struct {
	out io.Writer

	mu          sync.Mutex
	lastMessage string
	lastRoster  string
	lastBoard   string
	lastMyTurn  bool
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) RoomChanged(snap multiplayer.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if roster := formatRoster(snap); roster != p.lastRoster {
		p.lastRoster = roster
		if roster != "" {
			fmt.Fprintf(p.out, "Players: %s\n", roster)
		}
	}

	if snap.Game.Started {
		if board := formatBoard(snap); board != p.lastBoard {
			p.lastBoard = board
			fmt.Fprintln(p.out, board)
		}
	}

	if snap.Game.Message != p.lastMessage {
		p.lastMessage = snap.Game.Message
		fmt.Fprintln(p.out, snap.Game.Message)
	}

	myTurn := snap.MyTurn() && snap.Game.Started && !snap.Game.GameOver
	if myTurn && !p.lastMyTurn {
		fmt.Fprintln(p.out, "Your move.")
	}
	p.lastMyTurn = myTurn
}

func formatRoster(snap multiplayer.Snapshot) string {
	parts := make([]string, 0, len(snap.Assignments))
	for _, a := range snap.Assignments {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.PlayerName, a.Character.Name))
	}
	return strings.Join(parts, ", ")
}

func formatBoard(snap multiplayer.Snapshot) string {
	var b strings.Builder
	b.WriteString("Switches:")
	for i, pressed := range snap.Game.Switches {
		if pressed {
			b.WriteString(" [x]")
		} else {
			fmt.Fprintf(&b, " [%d]", i+1)
		}
	}
	return b.String()
}
