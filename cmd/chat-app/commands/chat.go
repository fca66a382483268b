package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/protocol"
)

// errLeave signals a user-requested exit from the chat loop.
var errLeave = errors.New("leave")

// runChat drives the interactive loop for one established session. It
// returns when the user leaves, the room ends or the process is told to
// stop.
func runChat(sess *domain.Session) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer wire.Rooms.Leave(sess)

	eng := wire.Engine(sess)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := eng.Connect(dialCtx)
	cancel()
	if err != nil {
		return err
	}

	if exp := eng.ExpiresAt(); !exp.IsZero() {
		fmt.Printf("Room expires at %s\n", exp.Local().Format("15:04"))
	}
	fmt.Println("Type to chat. Commands: /react N emoji, /destruct on|off [delay], /who, /recover, /leave")

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-eng.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			eng.Close()
			<-eng.Done()
			return nil
		case <-eng.Done():
			if errors.Is(eng.CloseReason(), protocol.ErrRoomExpired) {
				fmt.Println("The room has expired; its key is gone for good.")
			}
			return nil
		case ev := <-eng.Events():
			render(eng, ev)
		case line, ok := <-lines:
			if !ok {
				eng.Close()
				<-eng.Done()
				return nil
			}
			if err := dispatch(eng, sess, line); err != nil {
				if errors.Is(err, errLeave) {
					eng.Close()
					<-eng.Done()
					return nil
				}
				fmt.Println(err)
			}
		}
	}
}

// dispatch routes one input line: /commands act on the engine, anything
// else is sent as a message.
func dispatch(eng *protocol.Engine, sess *domain.Session, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return eng.Send(line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/leave", "/quit":
		return errLeave

	case "/who":
		fmt.Printf("Room %s as %s\n", sess.RoomID, sess.Username)
		fmt.Printf("Fingerprint %s\n", sess.Fingerprint)
		if typing := eng.TypingLine(); typing != "" {
			fmt.Println(typing)
		}
		if exp := eng.ExpiresAt(); !exp.IsZero() {
			fmt.Printf("Expires in %s\n", time.Until(exp).Round(time.Second))
		}
		return nil

	case "/react":
		if len(fields) != 3 {
			return fmt.Errorf("usage: /react <number> <emoji>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("usage: /react <number> <emoji>")
		}
		return eng.React(n, fields[2])

	case "/destruct":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /destruct on|off [delay]")
		}
		switch fields[1] {
		case "on":
			var after time.Duration
			if len(fields) > 2 {
				d, err := time.ParseDuration(fields[2])
				if err != nil {
					return fmt.Errorf("bad delay %q (try 30s or 2m)", fields[2])
				}
				after = d
			}
			eng.SetSelfDestruct(true, after)
			fmt.Println("Self-destruct on")
		case "off":
			eng.SetSelfDestruct(false, 0)
			fmt.Println("Self-destruct off")
		default:
			return fmt.Errorf("usage: /destruct on|off [delay]")
		}
		return nil

	case "/recover":
		if eng.State() != protocol.StateDegraded {
			return fmt.Errorf("nothing to recover, the connection is %s", eng.State())
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return eng.Reconnect(ctx)

	default:
		return fmt.Errorf("unknown command %s", fields[0])
	}
}

// render prints one engine event.
func render(eng *protocol.Engine, ev protocol.Event) {
	switch ev.Kind {
	case protocol.EventMessageAppended:
		printMessage(ev.Index, ev.Message)

	case protocol.EventMessageUpdated:
		if ev.Message.Deleted {
			fmt.Printf("  #%d %s\n", ev.Index, ev.Message.Text)
			return
		}
		parts := make([]string, 0, 4)
		for emoji, n := range eng.Reactions(ev.Index) {
			parts = append(parts, fmt.Sprintf("%s x%d", emoji, n))
		}
		sort.Strings(parts)
		fmt.Printf("  #%d reactions: %s\n", ev.Index, strings.Join(parts, "  "))

	case protocol.EventTypingChanged:
		if ev.Typing != "" {
			fmt.Println("... " + ev.Typing)
		}

	case protocol.EventStateChange:
		switch ev.State {
		case protocol.StateActive:
			fmt.Println("connected")
		case protocol.StateDegraded:
			fmt.Printf("!! connection lost (%s); type /recover to retry\n", ev.Reason)
		}

	case protocol.EventIdleLogout:
		fmt.Println("Logged out after inactivity.")
	}
}

func printMessage(idx int, m domain.Message) {
	if m.System {
		fmt.Printf("  -- %s\n", m.Text)
		return
	}
	sender := m.Sender
	if m.Mine {
		sender = "you"
	}
	ts := m.Timestamp.Local().Format("15:04")
	if m.SelfDestruct && !m.Deleted {
		fmt.Printf("#%d [%s] %s: %s (self-destructs after %s)\n", idx, ts, sender, m.Text, m.DestructAfter)
		return
	}
	fmt.Printf("#%d [%s] %s: %s\n", idx, ts, sender, m.Text)
}
