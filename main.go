// Command tekstitv is a line-mode teletext viewer. It drives the page
// engine from stdin commands and prints pages as ANSI colored text;
// richer hosts embed the same packages and render the grid themselves.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tekstitv/cache"
	"tekstitv/config"
	"tekstitv/fetch"
	"tekstitv/nav"
	"tekstitv/page"
)

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	retries := cfg.Fetch.RetryCount
	if retries <= 0 {
		// An explicit retry_count = 0 means none at all.
		retries = fetch.NoRetries
	}
	client := fetch.New(fetch.Options{
		BaseURL:   cfg.Fetch.BaseURL,
		Timeout:   cfg.Timeout(),
		Retries:   retries,
		UserAgent: cfg.Fetch.UserAgent,
	})
	pages := cache.New(cache.Options{
		TTL:      cfg.TTL(),
		MaxPages: cfg.Cache.MaxPages,
	})

	updates := make(chan nav.Snapshot, 8)
	ctrl := nav.NewController(&nav.Pipeline{
		Client: client,
		Cache:  pages,
		Dim:    cfg.Dimensions(),
	}, nav.Options{
		OnChange: func(s nav.Snapshot) { updates <- s },
	})

	start := "100"
	if len(os.Args) > 1 {
		start = os.Args[1]
	}
	id, err := page.ParsePageId(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := ctrl.Goto(id); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	fmt.Println("commands: <page number> goto, b back, f forward, s next subpage, r reload, q quit")
	for {
		select {
		case s := <-updates:
			show(s)
		case line, ok := <-lines:
			if !ok {
				return 0
			}
			if err := command(ctrl, line); err != nil {
				if errors.Is(err, errQuit) {
					return 0
				}
				fmt.Printf("  %v\n", err)
			}
		}
	}
}

var errQuit = errors.New("quit")

func command(ctrl *nav.Controller, line string) error {
	switch line {
	case "":
		return nil
	case "q", "quit":
		return errQuit
	case "b", "back":
		return ctrl.Back()
	case "f", "forward":
		return ctrl.Forward()
	case "s", "sub":
		return ctrl.NextSubpage()
	case "r", "reload":
		return ctrl.Reload()
	}
	id, err := page.ParsePageId(line)
	if err != nil {
		return err
	}
	return ctrl.Goto(id)
}

func show(s nav.Snapshot) {
	switch s.State {
	case nav.Loading:
		fmt.Printf("loading %s...\n", s.ID)
	case nav.Failed:
		fmt.Printf("failed: %v\n", s.Err)
	case nav.Displaying:
		printPage(s.Page)
	}
}

func printPage(p *page.Page) {
	fmt.Printf("P%d/%d of %d  %s\n", p.ID.Number, p.ID.Subpage, p.SubpageCount, p.Title)
	for _, row := range p.Grid {
		var b strings.Builder
		for _, cell := range row {
			b.WriteString(ansiStyle(cell))
			b.WriteRune(cell.Rune)
		}
		b.WriteString("\x1b[0m")
		fmt.Println(b.String())
	}
	for _, l := range p.Links {
		fmt.Printf("  link -> %s at row %d, cols %d-%d\n", l.Target, l.Row, l.ColStart, l.ColEnd)
	}
	for _, s := range p.Sections {
		fmt.Printf("  section %s -> %s\n", s.Label, s.Target)
	}
}

func ansiStyle(c page.Cell) string {
	style := fmt.Sprintf("\x1b[%d;%dm", 30+int(c.Fg), 40+int(c.Bg))
	if c.Attr&page.Bold != 0 {
		style += "\x1b[1m"
	}
	if c.Attr&page.Blink != 0 {
		style += "\x1b[5m"
	}
	return style
}
