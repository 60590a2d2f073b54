package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/config"
	"github.com/personafin/personafin/internal/dependency"
)

var chatName string

const replyWait = 3 * time.Minute

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the persona from the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatName, "name", "n", "You", "Display name used in the conversation")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg, cfgPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit)\n\n", logo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listenForSignals(cancel)

	loop := container.Loop()
	msgBus := container.MessageBus()

	go func() { _ = loop.Run(ctx) }()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("%s: ", chatName)

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		sendAndWait(ctx, msgBus, line)
	}
}

// listenForSignals cancels ctx on SIGINT or SIGTERM and exits.
func listenForSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nGoodbye!")
		cancel()
		os.Exit(0)
	}()
}

// sendAndWait pushes a message onto the inbound bus and blocks until the bot
// publishes the reply (or ctx is cancelled). The terminal chat is private, so
// the persona always answers.
func sendAndWait(ctx context.Context, msgBus bus.Bus, content string) {
	msg := bus.NewInboundMessage("cli", "user", chatName, "direct", content)
	msg.SetPrivate(true)
	msgBus.PublishInbound(msg)

	select {
	case out := <-msgBus.OutboundChan():
		if out.Content() != "" {
			fmt.Printf("\n%s personafin\n%s\n\n", logo, out.Content())
		}
	case <-time.After(replyWait):
		// Unknown slash commands produce no reply at all.
	case <-ctx.Done():
	}
}
