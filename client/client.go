package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"nextext/domain"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8000"`
	Token         string `env:"CHAT_TOKEN,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run opens a chat session, prints every delivered message,
// and sends each "to:content" line typed on stdin.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the websocket session.
	target := url.URL{
		Scheme:   "ws",
		Host:     config.ServerAddress,
		Path:     "/api/v1/chat/ws",
		RawQuery: url.Values{"token": {config.Token}}.Encode(),
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	color.Green.Printf(">>> Connected to %s (type \"<user id>:<message>\", Ctrl+C to quit)\n", config.ServerAddress)

	// 4. Forward stdin lines as frames.
	go func() {
		if err := pump(os.Stdin, conn); err != nil {
			log.Error("Input stopped", "error", err)
		}
		stop()
	}()

	// 5. Message reception loop, until the server closes or the user quits.
	received := make(chan error, 1)
	go func() { received <- receive(conn) }()

	select {
	case <-ctx.Done():
		return exitOK, nil
	case err := <-received:
		if ctx.Err() != nil {
			return exitOK, nil
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) && closeErr.Code == websocket.ClosePolicyViolation {
			return exitConfig, fmt.Errorf("session refused: %s", closeErr.Text)
		}
		return exitRuntime, fmt.Errorf("stream error: %w", err)
	}
}

func receive(conn *websocket.Conn) error {
	for {
		var msg domain.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		fmt.Printf("%s %s %s\n",
			color.Gray.Sprintf("[%s]", msg.Timestamp.Local().Format(time.TimeOnly)),
			color.Cyan.Sprintf("%d -> %d:", msg.SenderID, msg.RecipientID),
			msg.Content,
		)
	}
}

func pump(in io.Reader, conn *websocket.Conn) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		frame, err := parseLine(line)
		if err != nil {
			color.Red.Println(err.Error())
			continue
		}
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
	}
	return scanner.Err()
}

type outgoing struct {
	To      int64  `json:"to"`
	Content string `json:"content"`
}

// parseLine reads "<user id>:<message>".
func parseLine(line string) (outgoing, error) {
	to, content, found := strings.Cut(line, ":")
	if !found {
		return outgoing{}, fmt.Errorf("expected <user id>:<message>, got %q", line)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil || id <= 0 {
		return outgoing{}, fmt.Errorf("invalid user id %q", to)
	}
	return outgoing{To: id, Content: strings.TrimSpace(content)}, nil
}
