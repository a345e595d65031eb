package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/version"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const usage = `Usage: hearthctl [flags] <command> [args]

Commands:
  status                 Show the active session state
  pause                  Pause the engine
  resume                 Resume the engine
  quit                   Request an orderly shutdown
  sync-sound             Re-apply the global sound settings
  saves                  List save slots
  save <slot> [desc]     Save into a slot
  load <slot>            Load from a slot
  delete <slot>          Delete a slot
  events                 Tail the lifecycle event stream
`

func main() {
	addr := flag.String("addr", "http://localhost:8880", "Address of the hearth control API")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		fatalf("Failed to parse log level: %v", err)
	}
	log.SetDefaultLogger(log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel))
	log.Debug("hearthctl version %s", version.Get())

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	client := &apiClient{base: strings.TrimRight(*addr, "/")}

	switch args[0] {
	case "status":
		err = client.get(ctx, "/api/status")
	case "pause":
		err = client.post(ctx, "/api/pause", nil)
	case "resume":
		err = client.post(ctx, "/api/resume", nil)
	case "quit":
		err = client.post(ctx, "/api/quit", nil)
	case "sync-sound":
		err = client.post(ctx, "/api/sync-sound", nil)
	case "saves":
		err = client.get(ctx, "/api/saves")
	case "save":
		slot, description, argErr := slotArg(args[1:], true)
		if argErr != nil {
			fatalf("%v", argErr)
		}
		body := map[string]string{"description": description}
		err = client.post(ctx, fmt.Sprintf("/api/saves/%d", slot), body)
	case "load":
		slot, _, argErr := slotArg(args[1:], false)
		if argErr != nil {
			fatalf("%v", argErr)
		}
		err = client.post(ctx, fmt.Sprintf("/api/saves/%d/load", slot), nil)
	case "delete":
		slot, _, argErr := slotArg(args[1:], false)
		if argErr != nil {
			fatalf("%v", argErr)
		}
		err = client.delete(ctx, fmt.Sprintf("/api/saves/%d", slot))
	case "events":
		err = tailEvents(ctx, client.base)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func slotArg(args []string, withDescription bool) (int, string, error) {
	if len(args) == 0 {
		return 0, "", fmt.Errorf("a slot number is required")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid slot %q", args[0])
	}
	description := ""
	if withDescription && len(args) > 1 {
		description = strings.Join(args[1:], " ")
	}
	return slot, description, nil
}

type apiClient struct {
	base string
}

func (c *apiClient) get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *apiClient) post(ctx context.Context, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

func (c *apiClient) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *apiClient) do(req *http.Request) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if len(data) > 0 {
		fmt.Print(string(data))
	}
	return nil
}

// tailEvents streams lifecycle events to stdout until interrupted.
func tailEvents(ctx context.Context, base string) error {
	wsURL := strings.Replace(base, "http", "ws", 1) + "/api/events"

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", wsURL, err)
	}
	defer conn.CloseNow()

	for {
		var ev event.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return fmt.Errorf("event stream closed: %v", err)
		}
		line, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
