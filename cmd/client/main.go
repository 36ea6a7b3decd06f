package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"presence-lab/domain/chat"
	"presence-lab/infrastructure/grpc/client"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `envconfig:"PRESENCE_SERVER_ADDR" default:"localhost:4001"`
	Name          string `envconfig:"PRESENCE_NAME" required:"true"`
	Colours       bool   `envconfig:"PRESENCE_COLOURS" default:"true"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run joins the room over gRPC, prints every event and sends what is typed on stdin.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	session, err := client.Connect(ctx, conn)
	if err != nil {
		return exitRuntime, err
	}
	if err := session.Join(config.Name); err != nil {
		return exitRuntime, err
	}

	view := newView(os.Stdout, config.Name, config.Colours)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go inputLoop(ctx, cancel, os.Stdin, session, view, log)

	for {
		env, err := session.Recv()
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("stream error: %w", err)
		}
		if err := view.Render(env); err != nil {
			log.Warn("Unreadable event", "event", env.Event, "error", err)
		}
	}
}

func inputLoop(ctx context.Context, cancel context.CancelFunc, in io.Reader,
	session *client.PresenceClient, view *view, log *slog.Logger) {
	defer cancel()
	defer func() { _ = session.Close() }()

	scanner := bufio.NewScanner(in)
	fmt.Println("Type messages and press Enter to send. /who, /image <path>, /typing, /quit.")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "/quit":
			return
		case line == "/who":
			view.Participants()
		case line == "/typing":
			err = session.Typing(chat.TypingState{DisplayName: view.self, IsTyping: true})
		case strings.HasPrefix(line, "/image "):
			var msg chat.Message
			msg, err = imageMessage(view.self, strings.TrimSpace(strings.TrimPrefix(line, "/image ")), time.Now())
			if err == nil {
				err = session.Send(msg)
			}
		default:
			err = session.Send(chat.Message{
				Text:       line,
				AuthorName: view.self,
				Timestamp:  chat.FormatTimestamp(time.Now()),
			})
			if err == nil {
				err = session.Typing(chat.Stopped(view.self))
			}
		}
		if err != nil {
			log.Error("Send failed", "error", err)
			fmt.Fprintf(os.Stderr, "send error: %v\n", err)
		}
	}
}
